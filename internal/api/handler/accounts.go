package handler

import (
	"net/http"

	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
	"github.com/adstation/campaign-manager-api/pkg/log"
)

// ListAccounts returns the registered ad accounts. Active accounts only by
// default; pass all=true to include inactive ones.
func ListAccounts(repo repository.AccountRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var statuses []domain.AdAccountStatus
		if r.URL.Query().Get("all") != "true" {
			statuses = []domain.AdAccountStatus{domain.AdAccountStatusActive}
		}

		accounts, err := repo.ListAccounts(statuses)
		if err != nil {
			logger.WithError(err).Error("accounts: failed to list accounts")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "failed to list accounts", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(accounts); err != nil {
			logger.WithError(err).Error("accounts: failed to encode response")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "failed to encode response", nil)
		}
	})
}

package handler

import (
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"

	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
	"github.com/adstation/campaign-manager-api/pkg/log"
)

// ListCatalogEntities returns the cached structural entities of one level,
// optionally filtered by parent. Backs the campaign/ad set pickers, so it
// reads the in-memory snapshot rather than hitting the platform.
func ListCatalogEntities(catalog *reporting.CatalogStore, accountRepo repository.AccountRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		accountExternalID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		query := r.URL.Query()

		level := domain.LevelCampaign
		if rawLevel := query.Get("level"); rawLevel != "" {
			parsed, err := domain.ParseLevel(rawLevel)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
				return
			}
			level = parsed
		}

		account, err := accountRepo.GetAccountByExternalID(accountExternalID)
		if err != nil {
			logger.WithField("account_external_id", accountExternalID).WithError(err).Error("catalog: failed to resolve account")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "failed to resolve account", nil)
			return
		}
		if account == nil {
			apiErrors.WriteError(w, apiErrors.ErrAccountNotFound, "account not found", nil)
			return
		}

		entities := catalog.ByLevel(account.ID, level, query.Get("parent_id"))
		sort.Slice(entities, func(i, j int) bool {
			return entities[i].Name < entities[j].Name
		})

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"account_id": accountExternalID,
			"level":      level,
			"entities":   entities,
		}); err != nil {
			logger.WithError(err).Error("catalog: failed to encode response")
		}
	})
}

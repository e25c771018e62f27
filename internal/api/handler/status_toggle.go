package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
	"github.com/adstation/campaign-manager-api/pkg/log"
)

type ToggleStatusRequest struct {
	Level string `json:"level"`
}

// ToggleEntityStatus flips a campaign, ad set or ad between active and
// paused. The response reports whether the platform confirmed the change;
// unconfirmed flips carry a warning and settle on a later sync.
func ToggleEntityStatus(toggler *reporting.Toggler, accountRepo repository.AccountRepository) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		params := httprouter.ParamsFromContext(r.Context())
		accountExternalID := params.ByName("id")
		entityID := params.ByName("entity_id")

		var req ToggleStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Invalid request format", nil)
			return
		}

		level, err := domain.ParseLevel(req.Level)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, err.Error(), nil)
			return
		}

		account, err := accountRepo.GetAccountByExternalID(accountExternalID)
		if err != nil {
			logger.WithField("account_external_id", accountExternalID).WithError(err).Error("toggle: failed to resolve account")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "failed to resolve account", nil)
			return
		}
		if account == nil {
			apiErrors.WriteError(w, apiErrors.ErrAccountNotFound, "account not found", nil)
			return
		}

		logger.WithFields(log.Fields{
			"account_id": account.ID,
			"entity_id":  entityID,
			"level":      level,
		}).Info("toggle: status change requested")

		result, err := toggler.ToggleStatus(account.ID, level, entityID)
		if err != nil {
			handleToggleError(w, logger, entityID, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.WithField("entity_id", entityID).WithError(err).Error("toggle: failed to encode response")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "failed to encode response", nil)
		}
	})
}

func handleToggleError(w http.ResponseWriter, logger log.Logger, entityID string, err error) {
	switch {
	case errors.Is(err, reporting.ErrMissingCatalogEntry):
		apiErrors.WriteError(w, apiErrors.ErrEntityNotFound, "entity not found in catalog", nil)

	case reporting.IsStatusUpdateRejected(err):
		logger.WithField("entity_id", entityID).WithError(err).Warn("toggle: rejected by platform")
		apiErrors.WriteError(w, apiErrors.ErrStatusUpdateRejected, err.Error(), nil)

	case reporting.IsStatusUpdateRateLimited(err):
		logger.WithField("entity_id", entityID).WithError(err).Warn("toggle: rate limited by platform")
		apiErrors.WriteError(w, apiErrors.ErrStatusUpdateRateLimited, err.Error(), nil)

	default:
		logger.WithField("entity_id", entityID).WithError(err).Error("toggle: status update failed")
		apiErrors.WriteError(w, apiErrors.ErrExternalService, err.Error(), nil)
	}
}

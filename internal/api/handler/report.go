package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
	"github.com/adstation/campaign-manager-api/pkg/log"
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// GetAccountReport resolves the report view for one account and level.
//
// Query parameters: level (campaign|adset|ad, default campaign), parent_id,
// start_date, end_date (YYYY-MM-DD, required), statuses (comma-separated
// allow-list), sort (metric field) and order (asc|desc).
func GetAccountReport(engine *reporting.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		accountID := httprouter.ParamsFromContext(r.Context()).ByName("id")
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

		if query.Get("start_date") == "" || query.Get("end_date") == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "start_date and end_date are required", nil)
			return
		}

		startDate, err := utils.ParseDate(query.Get("start_date"))
		if err != nil {
			logger.WithFields(log.Fields{
				"account_id": accountID,
				"start_date": query.Get("start_date"),
			}).Warn("report: invalid start_date parameter")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "invalid start_date", nil)
			return
		}

		endDate, err := utils.ParseDate(query.Get("end_date"))
		if err != nil {
			logger.WithFields(log.Fields{
				"account_id": accountID,
				"end_date":   query.Get("end_date"),
			}).Warn("report: invalid end_date parameter")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "invalid end_date", nil)
			return
		}

		viewQuery := reporting.ViewQuery{
			AccountID: accountID,
			Level:     level,
			ParentID:  query.Get("parent_id"),
			StartDate: *startDate,
			EndDate:   *endDate,
			Statuses:  parseStatuses(query.Get("statuses")),
			SortField: query.Get("sort"),
			SortDesc:  strings.EqualFold(query.Get("order"), "desc"),
		}

		logger.WithFields(log.Fields{
			"account_id": accountID,
			"level":      level,
			"start_date": startDate.Format(time.DateOnly),
			"end_date":   endDate.Format(time.DateOnly),
		}).Info("report: resolving account report view")

		rows, err := engine.ResolveView(viewQuery)
		if err != nil {
			if errors.Is(err, reporting.ErrAccountNotFound) {
				apiErrors.WriteError(w, apiErrors.ErrAccountNotFound, "account not found", nil)
				return
			}

			logger.WithField("account_id", accountID).WithError(err).Error("report: failed to resolve view")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, err.Error(), nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"account_id": accountID,
			"level":      level,
			"rows":       rows,
		}); err != nil {
			logger.WithField("account_id", accountID).WithError(err).Error("report: failed to encode response")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "failed to encode response", nil)
		}
	})
}

func parseStatuses(raw string) []domain.EffectiveStatus {
	if raw == "" {
		return nil
	}

	statuses := make([]domain.EffectiveStatus, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		statuses = append(statuses, domain.EffectiveStatus(strings.ToUpper(part)))
	}
	return statuses
}

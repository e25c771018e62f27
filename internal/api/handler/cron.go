package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/internal/scheduler"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
)

const (
	CronJobTypeCatalog  = "catalog"
	CronJobTypeInsights = "insights"
	CronJobTypeAll      = "all"
)

// CronJobServices holds the schedulers exposed for manual triggering.
type CronJobServices struct {
	CatalogSyncService *scheduler.CatalogSyncService
	InsightSyncService *scheduler.InsightSyncService
}

// RunCronJob manually triggers one of the sync jobs.
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if cronType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Cron job type not specified", nil)
			return
		}

		logrus.WithField("type", cronType).Info("Manual cron job trigger requested")

		switch cronType {
		case CronJobTypeCatalog:
			if services.CatalogSyncService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Catalog sync service not available", nil)
				return
			}
			services.CatalogSyncService.TriggerManualSync()

		case CronJobTypeInsights:
			if services.InsightSyncService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Insight sync service not available", nil)
				return
			}
			services.InsightSyncService.TriggerManualSync()

		case CronJobTypeAll:
			if services.CatalogSyncService != nil {
				services.CatalogSyncService.TriggerManualSync()
			}
			if services.InsightSyncService != nil {
				services.InsightSyncService.TriggerManualSync()
			}

		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Invalid cron job type. Accepted values: catalog, insights, all", nil)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"message": "Cron job started",
			"type":    cronType,
		})
	}
}

// GetCronStatus returns the current state of the sync schedulers.
func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{
			"catalog":  services.CatalogSyncService.GetStatus(),
			"insights": services.InsightSyncService.GetStatus(),
		}

		json.NewEncoder(w).Encode(status)
	}
}

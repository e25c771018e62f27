package reporting

import (
	"time"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

// InsightSource reads ingested insight rows for aggregation. Implemented by
// the insight_records repository.
type InsightSource interface {
	// GetByLevelsAndDateRange returns every ingested row for the levels in
	// the window, duplicates included; deduplication is the engine's job.
	GetByLevelsAndDateRange(accountID string, levels []domain.Level, startDate, endDate time.Time) ([]*domain.InsightRecord, error)
}

// AccountSource resolves registered ad accounts.
type AccountSource interface {
	GetAccountByExternalID(externalID string) (*domain.AdAccount, error)
}

// CatalogFetcher pulls structural entities from the platform. Implemented by
// the meta integrator; used by the toggle confirm re-fetch.
type CatalogFetcher interface {
	GetEntitiesByLevel(accountID string, level domain.Level) ([]*domain.CatalogEntity, error)
	GetEntityByID(accountID string, level domain.Level, entityID string) (*domain.CatalogEntity, error)
}

// StatusUpdater pushes a status change to the platform.
type StatusUpdater interface {
	UpdateEntityStatus(entityID string, level domain.Level, active bool) error
}

// Resyncer triggers a full catalog + insight re-fetch for an account, used
// after a failed toggle so the dashboard reflects ground truth instead of a
// dangling optimistic state.
type Resyncer interface {
	ResyncAccount(accountID string)
}

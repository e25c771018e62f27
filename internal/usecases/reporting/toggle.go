package reporting

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

// ToggleResult reports the post-toggle view of the entity. Confirmed is true
// when the platform re-read agreed with the requested state; Warning carries
// the divergence message otherwise.
type ToggleResult struct {
	EntityID        string                 `json:"entity_id"`
	EffectiveStatus domain.EffectiveStatus `json:"effective_status"`
	Confirmed       bool                   `json:"confirmed"`
	Warning         string                 `json:"warning,omitempty"`
}

// Toggler runs the optimistic status flip: record the intent locally first,
// push it to the platform, then confirm against a fresh read. The local
// override keeps the UI consistent while the platform catches up.
type Toggler struct {
	catalog      *CatalogStore
	overrides    *OverrideStore
	updater      StatusUpdater
	fetcher      CatalogFetcher
	resyncer     Resyncer
	status       *StatusResolver
	confirmDelay time.Duration
}

func NewToggler(catalog *CatalogStore, overrides *OverrideStore, updater StatusUpdater, fetcher CatalogFetcher, resyncer Resyncer, confirmDelay time.Duration) *Toggler {
	return &Toggler{
		catalog:      catalog,
		overrides:    overrides,
		updater:      updater,
		fetcher:      fetcher,
		resyncer:     resyncer,
		status:       NewStatusResolver(catalog, overrides),
		confirmDelay: confirmDelay,
	}
}

// ToggleStatus flips the entity between active and paused.
//
// The override is written before the remote call so concurrent report reads
// already see the intended state. On remote failure the override stays (a
// resync will reconcile it) and the typed error surfaces to the caller. On
// success the entity is re-read after a short delay; only a confirming read
// clears the override, and only if no newer toggle replaced it meanwhile.
func (t *Toggler) ToggleStatus(accountID string, level domain.Level, entityID string) (*ToggleResult, error) {
	entity := t.catalog.Get(accountID, level, entityID)
	if entity == nil {
		return nil, errors.Wrapf(ErrMissingCatalogEntry, "entity %s", entityID)
	}

	current := t.status.Resolve(accountID, domain.AccountHealthy, level, entityID)
	desired := !current.Running()

	override := t.overrides.Set(entityID, desired)

	logger := logrus.WithFields(logrus.Fields{
		"account_id": accountID,
		"entity_id":  entityID,
		"level":      level,
		"active":     desired,
	})
	logger.Info("toggle: pushing status change")

	if err := t.updater.UpdateEntityStatus(entityID, level, desired); err != nil {
		// The platform rejected or never got the change. Kick a resync so
		// the catalog converges; the override stays until it does.
		logger.WithError(err).Warn("toggle: platform rejected status change, scheduling resync")
		t.resyncer.ResyncAccount(accountID)

		if IsStatusUpdateRejected(err) || IsStatusUpdateRateLimited(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "updating entity status")
	}

	return t.confirm(accountID, level, entityID, desired, override, logger), nil
}

// confirm re-reads the entity from the platform and reconciles the override.
func (t *Toggler) confirm(accountID string, level domain.Level, entityID string, desired bool, override Override, logger *logrus.Entry) *ToggleResult {
	if t.confirmDelay > 0 {
		time.Sleep(t.confirmDelay)
	}

	fresh, err := t.fetcher.GetEntityByID(accountID, level, entityID)
	if err != nil || fresh == nil {
		// Could not confirm. The flip likely took; keep the override so the
		// view stays on the intended state until the next sync settles it.
		logger.WithError(err).Warn("toggle: confirmation read failed, keeping override")
		return &ToggleResult{
			EntityID:        entityID,
			EffectiveStatus: t.status.Resolve(accountID, domain.AccountHealthy, level, entityID),
			Warning:         "status change sent but not yet confirmed",
		}
	}

	t.catalog.Put(accountID, fresh)

	reported := domain.EffectiveStatus(fresh.ReportedStatus)
	if reported.Running() == desired {
		// Confirmed. Clear the override unless a newer toggle owns it now.
		t.overrides.Clear(entityID, override.Seq)
		return &ToggleResult{
			EntityID:        entityID,
			EffectiveStatus: t.status.Resolve(accountID, domain.AccountHealthy, level, entityID),
			Confirmed:       true,
		}
	}

	logger.WithField("reported_status", fresh.ReportedStatus).
		Warn("toggle: platform still reports previous status")

	return &ToggleResult{
		EntityID:        entityID,
		EffectiveStatus: t.status.Resolve(accountID, domain.AccountHealthy, level, entityID),
		Warning:         "platform has not applied the status change yet",
	}
}

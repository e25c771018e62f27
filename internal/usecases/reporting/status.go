package reporting

import (
	"github.com/adstation/campaign-manager-api/internal/domain"
)

// statusContext carries everything a status rule may look at: the entity's
// own catalog record, the account health, the optimistic override, and the
// already-resolved ancestor statuses.
type statusContext struct {
	health   domain.AccountHealth
	entity   *domain.CatalogEntity
	override *Override

	// campaignStatus is set for ad sets and ads, adsetStatus only for ads.
	// Both are resolved through the base rules (never the downgrade rule),
	// so ancestor resolution cannot recurse back into children.
	campaignStatus domain.EffectiveStatus
	adsetStatus    domain.EffectiveStatus
}

// statusRule is one pure predicate of the resolution chain. Rules are
// evaluated in order; the first one that fires wins.
type statusRule struct {
	name string
	eval func(c *statusContext) (domain.EffectiveStatus, bool)
}

// baseRules implements the resolution order: account block, missing catalog
// record, deletion, ancestor inheritance, own status. The campaign-level
// all-children-paused downgrade sits outside this chain (see Resolve) because
// it needs the children resolved through these same rules first.
var baseRules = []statusRule{
	{
		name: "account_block",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			// A disabled or unpaid account overrides everything,
			// optimistic overrides included.
			return c.health.BlockStatus()
		},
	},
	{
		name: "missing_catalog_entry",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			if c.entity == nil {
				return domain.StatusUnknown, true
			}
			return "", false
		},
	},
	{
		name: "deleted",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			if c.entity.IsDeleted {
				return domain.StatusDeleted, true
			}
			return "", false
		},
	},
	{
		name: "ancestor_removed",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			// ARCHIVED and DELETED propagate down the whole chain.
			for _, st := range []domain.EffectiveStatus{c.campaignStatus, c.adsetStatus} {
				if st == domain.StatusArchived || st == domain.StatusDeleted {
					return st, true
				}
			}
			return "", false
		},
	},
	{
		name: "campaign_paused",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			if c.campaignStatus == domain.StatusPaused {
				return domain.StatusCampaignPaused, true
			}
			return "", false
		},
	},
	{
		name: "adset_paused",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			if c.adsetStatus == domain.StatusPaused {
				return domain.StatusAdsetPaused, true
			}
			return "", false
		},
	},
	{
		name: "own_status",
		eval: func(c *statusContext) (domain.EffectiveStatus, bool) {
			return ownStatus(c.entity, c.override), true
		},
	},
}

// ownStatus returns the entity's own state. An optimistic override stands in
// for the configured status and supersedes the platform-reported value until
// the toggle is reconciled.
func ownStatus(e *domain.CatalogEntity, override *Override) domain.EffectiveStatus {
	if override != nil {
		if override.IntendedActive {
			return domain.StatusActive
		}
		return domain.StatusPaused
	}

	if e.ReportedStatus != "" {
		return domain.EffectiveStatus(e.ReportedStatus)
	}

	if e.ConfiguredStatus == string(domain.StatusActive) {
		return domain.StatusActive
	}
	return domain.StatusPaused
}

// StatusResolver computes effective statuses from the catalog store and the
// override map. It never reads insight data: ingestion-time status snapshots
// may be stale.
type StatusResolver struct {
	catalog   *CatalogStore
	overrides *OverrideStore
}

func NewStatusResolver(catalog *CatalogStore, overrides *OverrideStore) *StatusResolver {
	return &StatusResolver{catalog: catalog, overrides: overrides}
}

// Resolve returns the effective status of one entity, including the
// campaign-level downgrade: an ACTIVE campaign whose non-deleted ad sets are
// all non-running displays as ADSET_PAUSED, since it produces no delivery.
// The downgrade only fires once the campaign's children have been synced,
// never speculatively on partial data.
func (r *StatusResolver) Resolve(accountID string, health domain.AccountHealth, level domain.Level, entityID string) domain.EffectiveStatus {
	st := r.resolveBase(accountID, health, level, entityID)

	if level != domain.LevelCampaign || st != domain.StatusActive {
		return st
	}
	if !r.catalog.ChildrenLoaded(accountID, entityID) {
		return st
	}

	children := r.catalog.ByLevel(accountID, domain.LevelAdset, entityID)
	anyChild := false
	for _, child := range children {
		if child.IsDeleted {
			continue
		}
		anyChild = true
		if r.resolveBase(accountID, health, domain.LevelAdset, child.ID).Running() {
			return st
		}
	}
	if anyChild {
		return domain.StatusAdsetPaused
	}
	return st
}

// resolveBase runs the ordered rule chain without the downgrade rule.
func (r *StatusResolver) resolveBase(accountID string, health domain.AccountHealth, level domain.Level, entityID string) domain.EffectiveStatus {
	c := &statusContext{
		health: health,
		entity: r.catalog.Get(accountID, level, entityID),
	}

	if c.entity != nil {
		if ov, ok := r.overrides.Get(entityID); ok {
			c.override = &ov
		}

		switch level {
		case domain.LevelAdset:
			c.campaignStatus = r.resolveBase(accountID, health, domain.LevelCampaign, c.entity.ParentID)
		case domain.LevelAd:
			c.adsetStatus = r.resolveBase(accountID, health, domain.LevelAdset, c.entity.ParentID)
			if adset := r.catalog.Get(accountID, domain.LevelAdset, c.entity.ParentID); adset != nil {
				c.campaignStatus = r.resolveBase(accountID, health, domain.LevelCampaign, adset.ParentID)
			}
		}
	}

	for _, rule := range baseRules {
		if st, ok := rule.eval(c); ok {
			return st
		}
	}

	return domain.StatusUnknown
}

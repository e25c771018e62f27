package domain

import (
	"fmt"
	"time"
)

// Level identifies a tier of the campaign hierarchy.
type Level string

const (
	LevelCampaign Level = "campaign"
	LevelAdset    Level = "adset"
	LevelAd       Level = "ad"
)

// Child returns the level one step below, or false at the bottom.
func (l Level) Child() (Level, bool) {
	switch l {
	case LevelCampaign:
		return LevelAdset, true
	case LevelAdset:
		return LevelAd, true
	default:
		return "", false
	}
}

func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelCampaign, LevelAdset, LevelAd:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid level: %q", s)
}

// EffectiveStatus is the status actually governing delivery, after
// ancestor-inheritance and override rules are applied. It is distinct from
// the raw status the platform reports.
type EffectiveStatus string

const (
	StatusActive          EffectiveStatus = "ACTIVE"
	StatusPaused          EffectiveStatus = "PAUSED"
	StatusArchived        EffectiveStatus = "ARCHIVED"
	StatusDeleted         EffectiveStatus = "DELETED"
	StatusCampaignPaused  EffectiveStatus = "CAMPAIGN_PAUSED"
	StatusAdsetPaused     EffectiveStatus = "ADSET_PAUSED"
	StatusAccountDisabled EffectiveStatus = "ACCOUNT_DISABLED"
	StatusAccountUnpaid   EffectiveStatus = "ACCOUNT_UNPAID"
	StatusUnknown         EffectiveStatus = "UNKNOWN"
)

// Running reports whether an entity with this status can deliver.
func (s EffectiveStatus) Running() bool {
	return s == StatusActive
}

// Label returns the display label for the status. Unknown entities render a
// neutral state rather than an error.
func (s EffectiveStatus) Label() string {
	if s == StatusUnknown {
		return "Không rõ"
	}
	return string(s)
}

// CatalogEntity is one structural record (campaign, ad set or ad) as last
// reported by the platform. The catalog sync owns these rows and overwrites
// them wholesale; the reporting engine only reads them.
type CatalogEntity struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Level     Level  `json:"level"`
	// ParentID is the ad set id for ads and the campaign id for ad sets.
	// Empty for campaigns.
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	// ConfiguredStatus is the user intent: ACTIVE or PAUSED.
	ConfiguredStatus string `json:"configured_status"`
	// ReportedStatus is the raw platform status and may carry transitional
	// or error states (IN_PROCESS, WITH_ISSUES, DISAPPROVED, ...).
	ReportedStatus string    `json:"reported_status"`
	DailyBudget    int64     `json:"daily_budget"`
	LifetimeBudget int64     `json:"lifetime_budget"`
	IsDeleted      bool      `json:"is_deleted"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Archived reports whether the platform archived the entity.
func (e *CatalogEntity) Archived() bool {
	return e.ReportedStatus == string(StatusArchived)
}

package domain

import "time"

type AdAccountStatus string

const (
	AdAccountStatusActive   AdAccountStatus = "ACTIVE"
	AdAccountStatusInactive AdAccountStatus = "INACTIVE"
)

// AccountHealth is the platform-side account state probed during catalog
// sync. A non-healthy account blocks every entity status underneath it.
type AccountHealth string

const (
	AccountHealthy  AccountHealth = "healthy"
	AccountDisabled AccountHealth = "disabled"
	AccountUnpaid   AccountHealth = "unpaid"
)

// BlockStatus maps a degraded account health to the effective status every
// entity in the account inherits, or false when the account is healthy.
func (h AccountHealth) BlockStatus() (EffectiveStatus, bool) {
	switch h {
	case AccountDisabled:
		return StatusAccountDisabled, true
	case AccountUnpaid:
		return StatusAccountUnpaid, true
	}
	return "", false
}

// AdAccount is one registered advertising account.
type AdAccount struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"external_id"`
	Name       string          `json:"name"`
	Nickname   *string         `json:"nickname,omitempty"`
	Currency   string          `json:"currency"`
	Status     AdAccountStatus `json:"status"`
	Health     AccountHealth   `json:"health"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

package metadomain

// Graph API account_status values.
const (
	AccountStatusActive       = 1
	AccountStatusDisabled     = 2
	AccountStatusUnsettled    = 3
	AccountStatusPendingRisk  = 7
	AccountStatusPendingClose = 100
	AccountStatusClosed       = 101
)

// AdAccount is the raw Graph API ad account shape used for the health probe.
type AdAccount struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountStatus int    `json:"account_status"`
	Currency      string `json:"currency"`
	DisableReason int    `json:"disable_reason"`
}

// Blocked reports whether the account cannot deliver at all.
func (a *AdAccount) Blocked() bool {
	return a.AccountStatus != AccountStatusActive
}

// Unpaid reports whether the block is a billing one rather than a policy one.
func (a *AdAccount) Unpaid() bool {
	return a.AccountStatus == AccountStatusUnsettled
}

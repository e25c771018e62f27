package domain

import "time"

// BudgetType distinguishes daily from lifetime budgets.
type BudgetType string

const (
	BudgetDaily    BudgetType = "daily"
	BudgetLifetime BudgetType = "lifetime"
)

// BudgetInfo is the resolved, display-ready budget of an entity.
//
// Weekly/Monthly/Quarterly/Yearly are flat multiples of the daily amount
// (x7, x30, x90, x365). They are estimates, not calendar-exact figures, and
// are only populated for daily budgets.
type BudgetInfo struct {
	Amount float64    `json:"amount"`
	Type   BudgetType `json:"type"`
	// IsInherited marks rows whose budget is displayed from the other tier:
	// a campaign summing its ad sets' budgets, or an ad set showing its
	// campaign's budget. At most one direction applies to a row.
	IsInherited bool    `json:"is_inherited"`
	Weekly      float64 `json:"weekly,omitempty"`
	Monthly     float64 `json:"monthly,omitempty"`
	Quarterly   float64 `json:"quarterly,omitempty"`
	Yearly      float64 `json:"yearly,omitempty"`
}

// ResolvedRow is one report row per (entity, date window). Rows are computed
// fresh on every view resolution and never stored.
type ResolvedRow struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
	Level    Level  `json:"level"`
	ParentID string `json:"parent_id,omitempty"`

	EffectiveStatus EffectiveStatus `json:"effective_status"`
	StatusLabel     string          `json:"status_label"`
	Budget          *BudgetInfo     `json:"budget,omitempty"`

	Objective   string  `json:"objective,omitempty"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Reach       int64   `json:"reach"`

	// Derived ratios, always recomputed from the summed numerators and
	// denominators, never averaged across days.
	CTR       float64 `json:"ctr"`
	CPM       float64 `json:"cpm"`
	CPC       float64 `json:"cpc"`
	Frequency float64 `json:"frequency"`

	ResultCount   int64   `json:"result_count"`
	ResultLabel   string  `json:"result_label,omitempty"`
	CostPerResult float64 `json:"cost_per_result"`

	ResultByDate map[string]int64   `json:"result_by_date,omitempty"`
	SpendByDate  map[string]float64 `json:"spend_by_date,omitempty"`

	// IsSynthetic marks a pseudo-row: a catalog entity with no delivery in
	// the window, distinguishable from delivery with zero result.
	IsSynthetic bool `json:"is_synthetic"`

	// LastDate is the most recent day with data in the window; zero for
	// synthetic rows. Used for within-tier ordering.
	LastDate time.Time `json:"-"`
}

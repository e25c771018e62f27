package metadomain

// Entity is the raw Graph API shape shared by campaigns, ad sets and ads.
// Budgets come back as strings of minor units; conversion to domain types
// happens in the integrator service, never here.
type Entity struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
	DailyBudget     string `json:"daily_budget,omitempty"`
	LifetimeBudget  string `json:"lifetime_budget,omitempty"`
	CampaignID      string `json:"campaign_id,omitempty"`
	AdsetID         string `json:"adset_id,omitempty"`
	UpdatedTime     string `json:"updated_time,omitempty"`
}

type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
	Next    string  `json:"next,omitempty"`
}

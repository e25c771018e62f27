package metadomain

type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// Insight is the raw Graph API insight row. Every numeric field is a string
// on the wire; the integrator service coerces them and drops non-finite
// values.
type Insight struct {
	AccountID      string   `json:"account_id"`
	CampaignID     string   `json:"campaign_id,omitempty"`
	CampaignName   string   `json:"campaign_name,omitempty"`
	AdsetID        string   `json:"adset_id,omitempty"`
	AdsetName      string   `json:"adset_name,omitempty"`
	AdID           string   `json:"ad_id,omitempty"`
	AdName         string   `json:"ad_name,omitempty"`
	Spend          string   `json:"spend"`
	Impressions    string   `json:"impressions"`
	Clicks         string   `json:"clicks"`
	Reach          string   `json:"reach"`
	Frequency      string   `json:"frequency"`
	Actions        []Action `json:"actions,omitempty"`
	CostPerActions []Action `json:"cost_per_action_type,omitempty"`
	Objective      string   `json:"objective,omitempty"`
	DateStart      string   `json:"date_start"`
	DateStop       string   `json:"date_stop"`
}

package domain

import (
	"time"

	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// Action is one entry of an insight row's action list: an action type
// identifier and its count (or cost, in cost_per_action_type lists).
type Action struct {
	ActionType string  `json:"action_type"`
	Value      float64 `json:"value"`
}

// ActionValue walks an action list and returns the value for the given type.
func ActionValue(actions []Action, actionType string) (float64, bool) {
	for _, a := range actions {
		if a.ActionType == actionType {
			return utils.Finite(a.Value), true
		}
	}
	return 0, false
}

// InsightRecord is one time-series performance row for an entity on one day,
// as ingested by the insight sync job. Rows are append-only; retried
// ingestions produce duplicates with a newer IngestedAt, which the
// aggregation engine deduplicates on read.
type InsightRecord struct {
	EntityID string    `json:"entity_id"`
	Level    Level     `json:"level"`
	Date     time.Time `json:"date"`
	// Ancestor ids carried on the row itself: CampaignID is set for adset
	// and ad rows, AdsetID only for ad rows.
	CampaignID    string   `json:"campaign_id,omitempty"`
	AdsetID       string   `json:"adset_id,omitempty"`
	Spend         float64  `json:"spend"`
	Impressions   int64    `json:"impressions"`
	Clicks        int64    `json:"clicks"`
	Reach         int64    `json:"reach"`
	Actions       []Action `json:"actions,omitempty"`
	CostPerAction []Action `json:"cost_per_action_type,omitempty"`
	Objective     string   `json:"objective,omitempty"`
	// IngestedAt orders duplicate rows for the same (entity, date, level);
	// the latest one wins.
	IngestedAt time.Time `json:"ingested_at"`
}

// ParentAt returns the record's ancestor id at the given level, or empty when
// the record does not sit below that level.
func (r *InsightRecord) ParentAt(level Level) string {
	switch level {
	case LevelCampaign:
		return r.CampaignID
	case LevelAdset:
		return r.AdsetID
	}
	return ""
}

// ImmediateParent returns the id of the record's direct parent entity.
func (r *InsightRecord) ImmediateParent() string {
	switch r.Level {
	case LevelAdset:
		return r.CampaignID
	case LevelAd:
		return r.AdsetID
	}
	return ""
}

package reporting

import (
	"sort"
	"time"

	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// Deduplicate collapses ingestion retries: for each (entity, date, level)
// only the record with the latest ingested_at contributes. Input order is
// preserved for the surviving records, so the whole pipeline stays
// deterministic and re-running it on the same input yields identical rows.
func Deduplicate(records []*domain.InsightRecord) []*domain.InsightRecord {
	type key struct {
		entityID string
		date     string
		level    domain.Level
	}

	latest := make(map[key]int, len(records))
	order := make([]key, 0, len(records))

	for i, rec := range records {
		k := key{rec.EntityID, rec.Date.Format(time.DateOnly), rec.Level}
		prev, seen := latest[k]
		if !seen {
			latest[k] = i
			order = append(order, k)
			continue
		}
		// Equal timestamps keep the later record in input order.
		if !records[i].IngestedAt.Before(records[prev].IngestedAt) {
			latest[k] = i
		}
	}

	out := make([]*domain.InsightRecord, 0, len(order))
	for _, k := range order {
		out = append(out, records[latest[k]])
	}
	return out
}

// MergeLevel produces, per entity at the requested level, the per-day rows
// of the window: deduplicated direct records, backfilled from child-level
// sums where the direct level is missing or has not propagated yet.
func MergeLevel(records []*domain.InsightRecord, level domain.Level, parentID string, startDate, endDate time.Time) map[string][]*domain.InsightRecord {
	deduped := Deduplicate(records)

	start := utils.TruncateToDay(startDate)
	end := utils.TruncateToDay(endDate)
	inWindow := func(d time.Time) bool {
		day := utils.TruncateToDay(d)
		return !day.Before(start) && !day.After(end)
	}

	type key struct {
		entityID string
		date     string
	}

	direct := make(map[key]*domain.InsightRecord)
	for _, rec := range deduped {
		if rec.Level != level || !inWindow(rec.Date) {
			continue
		}
		if parentID != "" && rec.ImmediateParent() != parentID {
			continue
		}
		direct[key{rec.EntityID, rec.Date.Format(time.DateOnly)}] = rec
	}

	// Child-level sums, grouped by the ancestor at the requested level.
	synthesized := make(map[key]*domain.InsightRecord)
	if childLevel, ok := level.Child(); ok {
		for _, rec := range deduped {
			if rec.Level != childLevel || !inWindow(rec.Date) {
				continue
			}
			ancestorID := rec.ParentAt(level)
			if ancestorID == "" {
				continue
			}
			k := key{ancestorID, rec.Date.Format(time.DateOnly)}
			agg, seen := synthesized[k]
			if !seen {
				agg = &domain.InsightRecord{
					EntityID:   ancestorID,
					Level:      level,
					Date:       utils.TruncateToDay(rec.Date),
					CampaignID: rec.CampaignID,
					IngestedAt: rec.IngestedAt,
				}
				if level == domain.LevelCampaign {
					agg.CampaignID = ""
				}
				synthesized[k] = agg
			}
			addInto(agg, rec)
		}
	}

	merged := make(map[string][]*domain.InsightRecord)
	push := func(entityID string, rec *domain.InsightRecord) {
		merged[entityID] = append(merged[entityID], rec)
	}

	for k, rec := range direct {
		// A direct record with zero spend is replaced by a non-zero
		// child-level aggregate: the requested level may simply not have
		// propagated yet. A direct record with spend is never replaced.
		if agg, ok := synthesized[k]; ok && rec.Spend == 0 && agg.Spend > 0 {
			push(k.entityID, agg)
			continue
		}
		push(k.entityID, rec)
	}
	for k, agg := range synthesized {
		if _, ok := direct[k]; ok {
			continue
		}
		if parentID != "" && agg.ImmediateParent() != "" && agg.ImmediateParent() != parentID {
			continue
		}
		push(k.entityID, agg)
	}

	for _, rows := range merged {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}

	return merged
}

// addInto sums one child record into a synthesized aggregate: spend,
// impressions, clicks, reach and every named action count. Cost-per-action
// entries are not summed (summing unit costs is meaningless); cost per
// result is recomputed downstream from the summed spend.
func addInto(agg, rec *domain.InsightRecord) {
	agg.Spend += utils.Finite(rec.Spend)
	agg.Impressions += rec.Impressions
	agg.Clicks += rec.Clicks
	agg.Reach += rec.Reach
	agg.Actions = sumActions(agg.Actions, rec.Actions)
	if agg.Objective == "" {
		agg.Objective = rec.Objective
	}
	if rec.IngestedAt.After(agg.IngestedAt) {
		agg.IngestedAt = rec.IngestedAt
	}
}

// sumActions merges two action lists by action type, keeping a sorted order
// so aggregation output is stable across runs.
func sumActions(a, b []domain.Action) []domain.Action {
	totals := make(map[string]float64, len(a)+len(b))
	for _, action := range a {
		totals[action.ActionType] += utils.Finite(action.Value)
	}
	for _, action := range b {
		totals[action.ActionType] += utils.Finite(action.Value)
	}

	types := make([]string, 0, len(totals))
	for t := range totals {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]domain.Action, 0, len(types))
	for _, t := range types {
		out = append(out, domain.Action{ActionType: t, Value: totals[t]})
	}
	return out
}

// Rollup collapses an entity's per-day rows into one whole-window record.
// Every numeric field is summed; derived ratios are recomputed later from
// these sums, never averaged per day.
func Rollup(rows []*domain.InsightRecord) *domain.InsightRecord {
	if len(rows) == 0 {
		return nil
	}

	total := &domain.InsightRecord{
		EntityID:   rows[0].EntityID,
		Level:      rows[0].Level,
		CampaignID: rows[0].CampaignID,
		AdsetID:    rows[0].AdsetID,
	}

	for _, rec := range rows {
		total.Spend += utils.Finite(rec.Spend)
		total.Impressions += rec.Impressions
		total.Clicks += rec.Clicks
		total.Reach += rec.Reach
		total.Actions = sumActions(total.Actions, rec.Actions)
		if rec.Objective != "" {
			total.Objective = rec.Objective
		}
		if rec.Date.After(total.Date) {
			total.Date = rec.Date
		}
	}

	// A single-day window keeps its cost_per_action_type list; summed
	// windows recompute cost from spend instead.
	if len(rows) == 1 {
		total.CostPerAction = rows[0].CostPerAction
	}

	return total
}

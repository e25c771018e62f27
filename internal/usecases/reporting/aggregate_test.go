package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func ingested(d, h int) time.Time {
	return time.Date(2025, 3, d, h, 0, 0, 0, time.UTC)
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name     string
		records  []*domain.InsightRecord
		validate func(t *testing.T, out []*domain.InsightRecord)
	}{
		{
			name: "latest ingestion wins per entity, date and level",
			records: []*domain.InsightRecord{
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 10, IngestedAt: ingested(1, 8)},
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 12, IngestedAt: ingested(1, 10)},
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(2), Spend: 7, IngestedAt: ingested(2, 8)},
			},
			validate: func(t *testing.T, out []*domain.InsightRecord) {
				assert.Len(t, out, 2)
				assert.Equal(t, 12.0, out[0].Spend)
				assert.Equal(t, 7.0, out[1].Spend)
			},
		},
		{
			name: "equal timestamps keep the later record in input order",
			records: []*domain.InsightRecord{
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 10, IngestedAt: ingested(1, 8)},
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 11, IngestedAt: ingested(1, 8)},
			},
			validate: func(t *testing.T, out []*domain.InsightRecord) {
				assert.Len(t, out, 1)
				assert.Equal(t, 11.0, out[0].Spend)
			},
		},
		{
			name: "same entity and date at different levels are distinct rows",
			records: []*domain.InsightRecord{
				{EntityID: "X", Level: domain.LevelCampaign, Date: day(1), Spend: 1, IngestedAt: ingested(1, 8)},
				{EntityID: "X", Level: domain.LevelAdset, Date: day(1), Spend: 2, IngestedAt: ingested(1, 8)},
			},
			validate: func(t *testing.T, out []*domain.InsightRecord) {
				assert.Len(t, out, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, Deduplicate(tt.records))
		})
	}
}

func TestMergeLevel_ChildBackfill(t *testing.T) {
	// No campaign-level rows at all: the campaign's row is synthesized from
	// its ad sets' sums.
	records := []*domain.InsightRecord{
		{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(1), Spend: 10, Impressions: 100, IngestedAt: ingested(1, 8)},
		{EntityID: "AS2", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(1), Spend: 15, Impressions: 50, IngestedAt: ingested(1, 8)},
	}

	merged := MergeLevel(records, domain.LevelCampaign, "", day(1), day(2))

	assert.Len(t, merged, 1)
	rows := merged["CMP1"]
	assert.Len(t, rows, 1)
	assert.Equal(t, 25.0, rows[0].Spend)
	assert.Equal(t, int64(150), rows[0].Impressions)
	assert.Equal(t, domain.LevelCampaign, rows[0].Level)
}

func TestMergeLevel_DirectVersusAggregate(t *testing.T) {
	tests := []struct {
		name      string
		records   []*domain.InsightRecord
		wantSpend float64
	}{
		{
			name: "direct row with spend is preferred over the child sum",
			records: []*domain.InsightRecord{
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 20, IngestedAt: ingested(1, 9)},
				{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(1), Spend: 25, IngestedAt: ingested(1, 9)},
			},
			wantSpend: 20,
		},
		{
			name: "zero-spend direct row is replaced by a non-zero child sum",
			records: []*domain.InsightRecord{
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 0, IngestedAt: ingested(1, 9)},
				{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(1), Spend: 25, IngestedAt: ingested(1, 9)},
			},
			wantSpend: 25,
		},
		{
			name: "zero-spend direct row stands when the child sum is zero too",
			records: []*domain.InsightRecord{
				{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 0, Impressions: 30, IngestedAt: ingested(1, 9)},
				{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(1), Spend: 0, Impressions: 99, IngestedAt: ingested(1, 9)},
			},
			wantSpend: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeLevel(tt.records, domain.LevelCampaign, "", day(1), day(1))
			rows := merged["CMP1"]
			assert.Len(t, rows, 1)
			assert.Equal(t, tt.wantSpend, rows[0].Spend)
		})
	}
}

func TestMergeLevel_Idempotent(t *testing.T) {
	// Re-ingesting the same rows (a retried sync) must not change results.
	base := []*domain.InsightRecord{
		{EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1), Spend: 20, Clicks: 5, IngestedAt: ingested(1, 9)},
		{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(2), Spend: 10, Clicks: 3, IngestedAt: ingested(2, 9)},
	}
	doubled := append(append([]*domain.InsightRecord{}, base...), base...)

	once := MergeLevel(base, domain.LevelCampaign, "", day(1), day(3))
	twice := MergeLevel(doubled, domain.LevelCampaign, "", day(1), day(3))

	assert.Equal(t, once, twice)
	assert.Len(t, once["CMP1"], 2)
}

func TestMergeLevel_WindowAndParentFilter(t *testing.T) {
	records := []*domain.InsightRecord{
		{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(1), Spend: 5, IngestedAt: ingested(1, 9)},
		{EntityID: "AS2", Level: domain.LevelAdset, CampaignID: "CMP2", Date: day(1), Spend: 6, IngestedAt: ingested(1, 9)},
		{EntityID: "AS1", Level: domain.LevelAdset, CampaignID: "CMP1", Date: day(9), Spend: 7, IngestedAt: ingested(9, 9)},
	}

	merged := MergeLevel(records, domain.LevelAdset, "CMP1", day(1), day(2))

	assert.Len(t, merged, 1)
	assert.Len(t, merged["AS1"], 1)
	assert.Equal(t, 5.0, merged["AS1"][0].Spend)
}

func TestRollup(t *testing.T) {
	rows := []*domain.InsightRecord{
		{
			EntityID: "AS1", Level: domain.LevelAdset, Date: day(1),
			Spend: 10, Impressions: 1000, Clicks: 20, Reach: 800,
			Actions:   []domain.Action{{ActionType: "lead", Value: 2}},
			Objective: "LEAD_GENERATION",
		},
		{
			EntityID: "AS1", Level: domain.LevelAdset, Date: day(2),
			Spend: 30, Impressions: 3000, Clicks: 40, Reach: 1200,
			Actions:   []domain.Action{{ActionType: "lead", Value: 3}},
			Objective: "LEAD_GENERATION",
		},
	}

	total := Rollup(rows)

	assert.Equal(t, 40.0, total.Spend)
	assert.Equal(t, int64(4000), total.Impressions)
	assert.Equal(t, int64(60), total.Clicks)
	assert.Equal(t, day(2), total.Date)
	lead, ok := domain.ActionValue(total.Actions, "lead")
	assert.True(t, ok)
	assert.Equal(t, 5.0, lead)
	// Summed windows drop per-day unit costs; they are recomputed from
	// spend downstream.
	assert.Nil(t, total.CostPerAction)
}

func TestRollup_Empty(t *testing.T) {
	assert.Nil(t, Rollup(nil))
}

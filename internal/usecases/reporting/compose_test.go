package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting/mocks"
)

func testAccount() *domain.AdAccount {
	return &domain.AdAccount{
		ID:         testAccountID,
		ExternalID: "act_123",
		Name:       "Shop ABC",
		Currency:   "VND",
		Health:     domain.AccountHealthy,
	}
}

func newTestEngine(t *testing.T, catalog *CatalogStore) (*Engine, *mocks.MockInsightSource, *mocks.MockAccountSource) {
	t.Helper()
	ctrl := gomock.NewController(t)
	insights := mocks.NewMockInsightSource(ctrl)
	accounts := mocks.NewMockAccountSource(ctrl)
	return NewEngine(catalog, NewOverrideStore(), insights, accounts), insights, accounts
}

func TestEngine_ResolveView_RowsAndPseudoRows(t *testing.T) {
	catalog := NewCatalogStore()
	seedCatalog(t, catalog,
		&domain.CatalogEntity{ID: "CMP1", Level: domain.LevelCampaign, Name: "Lead gen", ReportedStatus: "ACTIVE", DailyBudget: 150000},
		&domain.CatalogEntity{ID: "CMP2", Level: domain.LevelCampaign, Name: "No delivery yet", ReportedStatus: "ACTIVE", DailyBudget: 80000},
		&domain.CatalogEntity{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "ACTIVE"},
		&domain.CatalogEntity{ID: "AS2", Level: domain.LevelAdset, ParentID: "CMP2", ReportedStatus: "ACTIVE"},
	)

	engine, insights, accounts := newTestEngine(t, catalog)

	accounts.EXPECT().GetAccountByExternalID("act_123").Return(testAccount(), nil)
	insights.EXPECT().
		GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelCampaign}, gomock.Any(), gomock.Any()).
		Return([]*domain.InsightRecord{
			{
				EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(1),
				Spend: 50, Impressions: 10000, Clicks: 200, Reach: 8000,
				Actions:    []domain.Action{{ActionType: "lead", Value: 5}},
				Objective:  "LEAD_GENERATION",
				IngestedAt: ingested(1, 9),
			},
			{
				EntityID: "CMP1", Level: domain.LevelCampaign, Date: day(2),
				Spend: 30, Impressions: 5000, Clicks: 100, Reach: 4000,
				Actions:    []domain.Action{{ActionType: "lead", Value: 3}},
				Objective:  "LEAD_GENERATION",
				IngestedAt: ingested(2, 9),
			},
		}, nil)
	insights.EXPECT().
		GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelAdset}, gomock.Any(), gomock.Any()).
		Return(nil, nil)

	rows, err := engine.ResolveView(ViewQuery{
		AccountID: "act_123",
		Level:     domain.LevelCampaign,
		StartDate: day(1),
		EndDate:   day(7),
	})

	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	byID := map[string]*domain.ResolvedRow{}
	for _, row := range rows {
		byID[row.EntityID] = row
	}

	delivered := byID["CMP1"]
	assert.NotNil(t, delivered)
	assert.False(t, delivered.IsSynthetic)
	assert.Equal(t, "Lead gen", delivered.Name)
	assert.Equal(t, 80.0, delivered.Spend)
	assert.Equal(t, int64(15000), delivered.Impressions)
	// CTR from summed clicks over summed impressions, in percent.
	assert.Equal(t, 2.0, delivered.CTR)
	assert.Equal(t, int64(8), delivered.ResultCount)
	assert.Equal(t, "Khách hàng tiềm năng", delivered.ResultLabel)
	assert.Equal(t, 10.0, delivered.CostPerResult)
	assert.Equal(t, int64(5), delivered.ResultByDate["2025-03-01"])
	assert.Equal(t, 30.0, delivered.SpendByDate["2025-03-02"])
	assert.Equal(t, domain.StatusActive, delivered.EffectiveStatus)
	assert.NotNil(t, delivered.Budget)
	assert.Equal(t, 150000.0, delivered.Budget.Amount)

	pseudo := byID["CMP2"]
	assert.NotNil(t, pseudo)
	assert.True(t, pseudo.IsSynthetic)
	assert.Equal(t, "No delivery yet", pseudo.Name)
	assert.Zero(t, pseudo.Spend)
	assert.Zero(t, pseudo.ResultCount)
	assert.Equal(t, domain.StatusActive, pseudo.EffectiveStatus)
	assert.NotNil(t, pseudo.Budget)
}

func TestEngine_ResolveView_StatusFilter(t *testing.T) {
	catalog := NewCatalogStore()
	seedCatalog(t, catalog,
		&domain.CatalogEntity{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
		&domain.CatalogEntity{ID: "CMP2", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"},
		&domain.CatalogEntity{ID: "CMP3", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE", IsDeleted: true},
		&domain.CatalogEntity{ID: "CMP4", Level: domain.LevelCampaign, ReportedStatus: "ARCHIVED"},
	)

	tests := []struct {
		name     string
		statuses []domain.EffectiveStatus
		// CMP5 has insight rows but no catalog entry, so it resolves to
		// UNKNOWN and must survive any filter.
		wantIDs []string
	}{
		{
			name:    "default filter hides deleted and archived",
			wantIDs: []string{"CMP1", "CMP2", "CMP5"},
		},
		{
			name:     "explicit filter keeps only listed statuses plus unknown",
			statuses: []domain.EffectiveStatus{domain.StatusActive},
			wantIDs:  []string{"CMP1", "CMP5"},
		},
		{
			name:     "deleted rows are visible when asked for",
			statuses: []domain.EffectiveStatus{domain.StatusDeleted},
			wantIDs:  []string{"CMP3", "CMP5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, insights, accounts := newTestEngine(t, catalog)
			accounts.EXPECT().GetAccountByExternalID("act_123").Return(testAccount(), nil)
			insights.EXPECT().
				GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelCampaign}, gomock.Any(), gomock.Any()).
				Return([]*domain.InsightRecord{
					{EntityID: "CMP5", Level: domain.LevelCampaign, Date: day(1), Spend: 3, IngestedAt: ingested(1, 9)},
				}, nil)
			insights.EXPECT().
				GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelAdset}, gomock.Any(), gomock.Any()).
				Return(nil, nil)

			rows, err := engine.ResolveView(ViewQuery{
				AccountID: "act_123",
				Level:     domain.LevelCampaign,
				StartDate: day(1),
				EndDate:   day(2),
				Statuses:  tt.statuses,
			})

			assert.NoError(t, err)
			gotIDs := make([]string, 0, len(rows))
			for _, row := range rows {
				gotIDs = append(gotIDs, row.EntityID)
			}
			assert.ElementsMatch(t, tt.wantIDs, gotIDs)
		})
	}
}

func TestEngine_ResolveView_DefaultOrdering(t *testing.T) {
	catalog := NewCatalogStore()
	seedCatalog(t, catalog,
		&domain.CatalogEntity{ID: "CMP_PAUSED", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"},
		&domain.CatalogEntity{ID: "CMP_DELETED", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE", IsDeleted: true},
		&domain.CatalogEntity{ID: "CMP_ACTIVE", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
		&domain.CatalogEntity{ID: "CMP_DOWNGRADED", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
		&domain.CatalogEntity{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP_DOWNGRADED", ReportedStatus: "PAUSED"},
		&domain.CatalogEntity{ID: "AS2", Level: domain.LevelAdset, ParentID: "CMP_ACTIVE", ReportedStatus: "ACTIVE"},
	)

	engine, insights, accounts := newTestEngine(t, catalog)
	accounts.EXPECT().GetAccountByExternalID("act_123").Return(testAccount(), nil)
	insights.EXPECT().
		GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelCampaign}, gomock.Any(), gomock.Any()).
		Return(nil, nil)
	insights.EXPECT().
		GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelAdset}, gomock.Any(), gomock.Any()).
		Return(nil, nil)

	rows, err := engine.ResolveView(ViewQuery{
		AccountID: "act_123",
		Level:     domain.LevelCampaign,
		StartDate: day(1),
		EndDate:   day(7),
		Statuses: []domain.EffectiveStatus{
			domain.StatusActive,
			domain.StatusAdsetPaused,
			domain.StatusPaused,
			domain.StatusDeleted,
		},
	})

	assert.NoError(t, err)
	gotIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		gotIDs = append(gotIDs, row.EntityID)
	}
	// Running first, downgraded second, paused third, removed last.
	assert.Equal(t, []string{"CMP_ACTIVE", "CMP_DOWNGRADED", "CMP_PAUSED", "CMP_DELETED"}, gotIDs)
}

func TestEngine_ResolveView_SortByField(t *testing.T) {
	catalog := NewCatalogStore()
	seedCatalog(t, catalog,
		&domain.CatalogEntity{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE", DailyBudget: 50000},
		&domain.CatalogEntity{ID: "CMP2", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE", DailyBudget: 150000},
		&domain.CatalogEntity{ID: "CMP3", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
	)

	engine, insights, accounts := newTestEngine(t, catalog)
	accounts.EXPECT().GetAccountByExternalID("act_123").Return(testAccount(), nil)
	insights.EXPECT().
		GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelCampaign}, gomock.Any(), gomock.Any()).
		Return(nil, nil)
	insights.EXPECT().
		GetByLevelsAndDateRange(testAccountID, []domain.Level{domain.LevelAdset}, gomock.Any(), gomock.Any()).
		Return(nil, nil)

	rows, err := engine.ResolveView(ViewQuery{
		AccountID: "act_123",
		Level:     domain.LevelCampaign,
		StartDate: day(1),
		EndDate:   day(7),
		SortField: "budget",
		SortDesc:  true,
	})

	assert.NoError(t, err)
	gotIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		gotIDs = append(gotIDs, row.EntityID)
	}
	// Budgetless rows sort last regardless of direction.
	assert.Equal(t, []string{"CMP2", "CMP1", "CMP3"}, gotIDs)
}

func TestEngine_ResolveView_Validation(t *testing.T) {
	engine, _, accounts := newTestEngine(t, NewCatalogStore())

	_, err := engine.ResolveView(ViewQuery{AccountID: "act_123", Level: domain.LevelCampaign})
	assert.Error(t, err)

	_, err = engine.ResolveView(ViewQuery{
		AccountID: "act_123", Level: domain.LevelCampaign,
		StartDate: day(5), EndDate: day(1),
	})
	assert.Error(t, err)

	accounts.EXPECT().GetAccountByExternalID("act_999").Return(nil, nil)
	_, err = engine.ResolveView(ViewQuery{
		AccountID: "act_999", Level: domain.LevelCampaign,
		StartDate: day(1), EndDate: day(2),
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

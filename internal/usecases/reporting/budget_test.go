package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

func TestBudgetResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		entities []*domain.CatalogEntity
		target   string
		level    domain.Level
		currency string
		validate func(t *testing.T, info *domain.BudgetInfo)
	}{
		{
			name: "own daily budget in a zero-decimal currency",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, DailyBudget: 150000},
			},
			target:   "CMP1",
			level:    domain.LevelCampaign,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 150000.0, info.Amount)
				assert.Equal(t, domain.BudgetDaily, info.Type)
				assert.False(t, info.IsInherited)
				assert.Equal(t, 1050000.0, info.Weekly)
				assert.Equal(t, 4500000.0, info.Monthly)
				assert.Equal(t, 13500000.0, info.Quarterly)
				assert.Equal(t, 54750000.0, info.Yearly)
			},
		},
		{
			name: "minor-unit currency divides by one hundred",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, DailyBudget: 2550},
			},
			target:   "CMP1",
			level:    domain.LevelCampaign,
			currency: "USD",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 25.5, info.Amount)
			},
		},
		{
			name: "daily budget takes precedence over lifetime",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, DailyBudget: 100000, LifetimeBudget: 900000},
			},
			target:   "CMP1",
			level:    domain.LevelCampaign,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 100000.0, info.Amount)
				assert.Equal(t, domain.BudgetDaily, info.Type)
			},
		},
		{
			name: "lifetime budget gets no period estimates",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, LifetimeBudget: 900000},
			},
			target:   "CMP1",
			level:    domain.LevelCampaign,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 900000.0, info.Amount)
				assert.Equal(t, domain.BudgetLifetime, info.Type)
				assert.Zero(t, info.Weekly)
				assert.Zero(t, info.Yearly)
			},
		},
		{
			name: "budgetless campaign sums its ad sets' daily budgets",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", DailyBudget: 100000},
				{ID: "AS2", Level: domain.LevelAdset, ParentID: "CMP1", DailyBudget: 50000},
				{ID: "AS3", Level: domain.LevelAdset, ParentID: "CMP1", DailyBudget: 30000, IsDeleted: true},
			},
			target:   "CMP1",
			level:    domain.LevelCampaign,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 150000.0, info.Amount)
				assert.Equal(t, domain.BudgetDaily, info.Type)
				assert.True(t, info.IsInherited)
			},
		},
		{
			name: "budgetless ad set displays its campaign's budget",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, DailyBudget: 150000},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1"},
			},
			target:   "AS1",
			level:    domain.LevelAdset,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 150000.0, info.Amount)
				assert.True(t, info.IsInherited)
			},
		},
		{
			name: "ad set with its own budget never inherits",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, DailyBudget: 999999},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", DailyBudget: 70000},
			},
			target:   "AS1",
			level:    domain.LevelAdset,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Equal(t, 70000.0, info.Amount)
				assert.False(t, info.IsInherited)
			},
		},
		{
			name: "no budget anywhere resolves to nil",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1"},
			},
			target:   "AS1",
			level:    domain.LevelAdset,
			currency: "VND",
			validate: func(t *testing.T, info *domain.BudgetInfo) {
				assert.Nil(t, info)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := NewCatalogStore()
			seedCatalog(t, catalog, tt.entities...)

			resolver := NewBudgetResolver(catalog)
			entity := catalog.Get(testAccountID, tt.level, tt.target)
			tt.validate(t, resolver.Resolve(testAccountID, entity, tt.currency))
		})
	}
}

func TestBudgetResolver_NilEntity(t *testing.T) {
	resolver := NewBudgetResolver(NewCatalogStore())
	assert.Nil(t, resolver.Resolve(testAccountID, nil, "VND"))
}

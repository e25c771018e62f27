package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adstation/campaign-manager-api/internal/domain"
)

const testAccountID = "ACC001"

func seedCatalog(t *testing.T, catalog *CatalogStore, entities ...*domain.CatalogEntity) {
	t.Helper()
	byLevel := map[domain.Level][]*domain.CatalogEntity{}
	for _, e := range entities {
		e.AccountID = testAccountID
		byLevel[e.Level] = append(byLevel[e.Level], e)
	}
	for _, level := range []domain.Level{domain.LevelCampaign, domain.LevelAdset, domain.LevelAd} {
		if rows, ok := byLevel[level]; ok {
			catalog.ReplaceLevel(testAccountID, level, rows)
		}
	}
}

func TestStatusResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		entities []*domain.CatalogEntity
		health   domain.AccountHealth
		override func(overrides *OverrideStore)
		level    domain.Level
		entityID string
		want     domain.EffectiveStatus
	}{
		{
			name: "active entity under active ancestors",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "ACTIVE"},
				{ID: "AD1", Level: domain.LevelAd, ParentID: "AS1", ReportedStatus: "ACTIVE"},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelAd,
			entityID: "AD1",
			want:     domain.StatusActive,
		},
		{
			name: "paused campaign shows its children as CAMPAIGN_PAUSED",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "ACTIVE"},
				{ID: "AD1", Level: domain.LevelAd, ParentID: "AS1", ReportedStatus: "ACTIVE"},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelAd,
			entityID: "AD1",
			want:     domain.StatusCampaignPaused,
		},
		{
			name: "paused ad set shows its active ad as ADSET_PAUSED",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "PAUSED"},
				{ID: "AD1", Level: domain.LevelAd, ParentID: "AS1", ReportedStatus: "ACTIVE"},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelAd,
			entityID: "AD1",
			want:     domain.StatusAdsetPaused,
		},
		{
			name: "campaign pause outranks ad set pause",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "PAUSED"},
				{ID: "AD1", Level: domain.LevelAd, ParentID: "AS1", ReportedStatus: "ACTIVE"},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelAd,
			entityID: "AD1",
			want:     domain.StatusCampaignPaused,
		},
		{
			name: "archived ancestor propagates to the ad",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ARCHIVED"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "ACTIVE"},
				{ID: "AD1", Level: domain.LevelAd, ParentID: "AS1", ReportedStatus: "ACTIVE"},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelAd,
			entityID: "AD1",
			want:     domain.StatusArchived,
		},
		{
			name: "deleted flag outranks the reported status",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE", IsDeleted: true},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelCampaign,
			entityID: "CMP1",
			want:     domain.StatusDeleted,
		},
		{
			name: "disabled account blocks every entity",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
			},
			health:   domain.AccountDisabled,
			level:    domain.LevelCampaign,
			entityID: "CMP1",
			want:     domain.StatusAccountDisabled,
		},
		{
			name: "unpaid account blocks even optimistic overrides",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"},
			},
			health: domain.AccountUnpaid,
			override: func(overrides *OverrideStore) {
				overrides.Set("CMP1", true)
			},
			level:    domain.LevelCampaign,
			entityID: "CMP1",
			want:     domain.StatusAccountUnpaid,
		},
		{
			name:     "entity missing from the catalog resolves to UNKNOWN",
			entities: nil,
			health:   domain.AccountHealthy,
			level:    domain.LevelCampaign,
			entityID: "GHOST",
			want:     domain.StatusUnknown,
		},
		{
			name: "optimistic override supersedes the reported status",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"},
			},
			health: domain.AccountHealthy,
			override: func(overrides *OverrideStore) {
				overrides.Set("CMP1", true)
			},
			level:    domain.LevelCampaign,
			entityID: "CMP1",
			want:     domain.StatusActive,
		},
		{
			name: "configured status stands in when no reported status exists",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ConfiguredStatus: "ACTIVE"},
			},
			health:   domain.AccountHealthy,
			level:    domain.LevelCampaign,
			entityID: "CMP1",
			want:     domain.StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := NewCatalogStore()
			overrides := NewOverrideStore()
			seedCatalog(t, catalog, tt.entities...)
			if tt.override != nil {
				tt.override(overrides)
			}

			resolver := NewStatusResolver(catalog, overrides)
			got := resolver.Resolve(testAccountID, tt.health, tt.level, tt.entityID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusResolver_CampaignDowngrade(t *testing.T) {
	tests := []struct {
		name     string
		entities []*domain.CatalogEntity
		want     domain.EffectiveStatus
	}{
		{
			name: "active campaign with all ad sets paused displays as ADSET_PAUSED",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "PAUSED"},
				{ID: "AS2", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "PAUSED"},
			},
			want: domain.StatusAdsetPaused,
		},
		{
			name: "one running ad set keeps the campaign ACTIVE",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "PAUSED"},
				{ID: "AS2", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "ACTIVE"},
			},
			want: domain.StatusActive,
		},
		{
			name: "deleted ad sets do not count as paused children",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
				{ID: "AS1", Level: domain.LevelAdset, ParentID: "CMP1", ReportedStatus: "PAUSED", IsDeleted: true},
			},
			want: domain.StatusActive,
		},
		{
			// Seeding only the campaign level leaves children unloaded, so
			// the downgrade must not fire speculatively.
			name: "no downgrade before the ad set sync has run",
			entities: []*domain.CatalogEntity{
				{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"},
			},
			want: domain.StatusActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := NewCatalogStore()
			seedCatalog(t, catalog, tt.entities...)

			resolver := NewStatusResolver(catalog, NewOverrideStore())
			got := resolver.Resolve(testAccountID, domain.AccountHealthy, domain.LevelCampaign, "CMP1")
			assert.Equal(t, tt.want, got)
		})
	}
}

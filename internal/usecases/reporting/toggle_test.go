package reporting

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting/mocks"
)

type togglerFixture struct {
	toggler   *Toggler
	catalog   *CatalogStore
	overrides *OverrideStore
	updater   *mocks.MockStatusUpdater
	fetcher   *mocks.MockCatalogFetcher
	resyncer  *mocks.MockResyncer
}

func newTogglerFixture(t *testing.T, entities ...*domain.CatalogEntity) *togglerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &togglerFixture{
		catalog:   NewCatalogStore(),
		overrides: NewOverrideStore(),
		updater:   mocks.NewMockStatusUpdater(ctrl),
		fetcher:   mocks.NewMockCatalogFetcher(ctrl),
		resyncer:  mocks.NewMockResyncer(ctrl),
	}
	seedCatalog(t, f.catalog, entities...)
	// No confirm delay in tests.
	f.toggler = NewToggler(f.catalog, f.overrides, f.updater, f.fetcher, f.resyncer, 0)
	return f
}

func pausedCampaign() *domain.CatalogEntity {
	return &domain.CatalogEntity{ID: "CMP1", Level: domain.LevelCampaign, ReportedStatus: "PAUSED"}
}

func TestToggler_ToggleStatus_ConfirmedFlip(t *testing.T) {
	f := newTogglerFixture(t, pausedCampaign())

	f.updater.EXPECT().UpdateEntityStatus("CMP1", domain.LevelCampaign, true).Return(nil)
	f.fetcher.EXPECT().GetEntityByID(testAccountID, domain.LevelCampaign, "CMP1").
		Return(&domain.CatalogEntity{ID: "CMP1", AccountID: testAccountID, Level: domain.LevelCampaign, ReportedStatus: "ACTIVE"}, nil)

	result, err := f.toggler.ToggleStatus(testAccountID, domain.LevelCampaign, "CMP1")

	assert.NoError(t, err)
	assert.True(t, result.Confirmed)
	assert.Empty(t, result.Warning)
	assert.Equal(t, domain.StatusActive, result.EffectiveStatus)

	// The confirming read cleared the override and refreshed the catalog.
	_, ok := f.overrides.Get("CMP1")
	assert.False(t, ok)
	assert.Equal(t, "ACTIVE", f.catalog.Get(testAccountID, domain.LevelCampaign, "CMP1").ReportedStatus)
}

func TestToggler_ToggleStatus_PlatformStillBehind(t *testing.T) {
	f := newTogglerFixture(t, pausedCampaign())

	f.updater.EXPECT().UpdateEntityStatus("CMP1", domain.LevelCampaign, true).Return(nil)
	// The re-read still reports the old status.
	f.fetcher.EXPECT().GetEntityByID(testAccountID, domain.LevelCampaign, "CMP1").
		Return(&domain.CatalogEntity{ID: "CMP1", AccountID: testAccountID, Level: domain.LevelCampaign, ReportedStatus: "PAUSED"}, nil)

	result, err := f.toggler.ToggleStatus(testAccountID, domain.LevelCampaign, "CMP1")

	assert.NoError(t, err)
	assert.False(t, result.Confirmed)
	assert.NotEmpty(t, result.Warning)
	// The override stays, so the view keeps showing the intended state.
	ov, ok := f.overrides.Get("CMP1")
	assert.True(t, ok)
	assert.True(t, ov.IntendedActive)
	assert.Equal(t, domain.StatusActive, result.EffectiveStatus)
}

func TestToggler_ToggleStatus_ConfirmReadFails(t *testing.T) {
	f := newTogglerFixture(t, pausedCampaign())

	f.updater.EXPECT().UpdateEntityStatus("CMP1", domain.LevelCampaign, true).Return(nil)
	f.fetcher.EXPECT().GetEntityByID(testAccountID, domain.LevelCampaign, "CMP1").
		Return(nil, errors.New("graph timeout"))

	result, err := f.toggler.ToggleStatus(testAccountID, domain.LevelCampaign, "CMP1")

	assert.NoError(t, err)
	assert.False(t, result.Confirmed)
	assert.NotEmpty(t, result.Warning)
	_, ok := f.overrides.Get("CMP1")
	assert.True(t, ok)
}

func TestToggler_ToggleStatus_UpdateFails(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
		check     func(t *testing.T, err error)
	}{
		{
			name:      "platform rejection surfaces typed",
			updateErr: &StatusUpdateRejectedError{Reason: "account payment required"},
			check: func(t *testing.T, err error) {
				assert.True(t, IsStatusUpdateRejected(err))
			},
		},
		{
			name:      "rate limit surfaces typed",
			updateErr: &StatusUpdateRateLimitedError{Reason: "too many calls"},
			check: func(t *testing.T, err error) {
				assert.True(t, IsStatusUpdateRateLimited(err))
			},
		},
		{
			name:      "transport failure is wrapped",
			updateErr: errors.New("connection reset"),
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.False(t, IsStatusUpdateRejected(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTogglerFixture(t, pausedCampaign())

			f.updater.EXPECT().UpdateEntityStatus("CMP1", domain.LevelCampaign, true).Return(tt.updateErr)
			// Every failed push schedules a resync to reconcile the
			// dangling optimistic state.
			f.resyncer.EXPECT().ResyncAccount(testAccountID)

			result, err := f.toggler.ToggleStatus(testAccountID, domain.LevelCampaign, "CMP1")

			assert.Nil(t, result)
			tt.check(t, err)

			// The override stays until the resync settles it.
			ov, ok := f.overrides.Get("CMP1")
			assert.True(t, ok)
			assert.True(t, ov.IntendedActive)
		})
	}
}

func TestToggler_ToggleStatus_UnknownEntity(t *testing.T) {
	f := newTogglerFixture(t)

	result, err := f.toggler.ToggleStatus(testAccountID, domain.LevelCampaign, "GHOST")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMissingCatalogEntry)
}

func TestOverrideStore_GuardedClear(t *testing.T) {
	overrides := NewOverrideStore()

	first := overrides.Set("CMP1", true)
	second := overrides.Set("CMP1", false)

	// A confirm for the superseded toggle must not wipe the newer intent.
	assert.False(t, overrides.Clear("CMP1", first.Seq))
	ov, ok := overrides.Get("CMP1")
	assert.True(t, ok)
	assert.False(t, ov.IntendedActive)

	assert.True(t, overrides.Clear("CMP1", second.Seq))
	_, ok = overrides.Get("CMP1")
	assert.False(t, ok)
}

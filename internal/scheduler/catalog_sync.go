package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/config"
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
)

// CatalogIntegrator is the slice of the platform integrator the catalog sync
// needs: structural snapshots plus the account health probe.
type CatalogIntegrator interface {
	GetEntitiesByLevel(accountID string, level domain.Level) ([]*domain.CatalogEntity, error)
	GetAccountSnapshot(accountExternalID string) (*domain.AdAccount, error)
}

type CatalogSyncConfig struct {
	CronSchedule      string
	MaxConcurrentJobs int
	SyncEnabled       bool
}

// CatalogSyncService keeps the structural catalog (campaigns, ad sets, ads)
// and account health aligned with the platform. Each run replaces the
// per-level snapshot both in the database and in the in-memory store the
// report engine reads from.
type CatalogSyncService struct {
	scheduler           *gocron.Scheduler
	config              CatalogSyncConfig
	accountRepo         repository.AccountRepository
	catalogRepo         repository.CatalogEntityRepository
	catalogStore        *reporting.CatalogStore
	integrator          CatalogIntegrator
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

func NewCatalogSyncService(
	accountRepo repository.AccountRepository,
	catalogRepo repository.CatalogEntityRepository,
	catalogStore *reporting.CatalogStore,
	integrator CatalogIntegrator,
	appConfig *config.Config,
) *CatalogSyncService {
	catalogConfig := CatalogSyncConfig{
		CronSchedule:      appConfig.CatalogSync.CronSchedule,
		MaxConcurrentJobs: appConfig.CatalogSync.MaxConcurrentJobs,
		SyncEnabled:       appConfig.CatalogSync.Enabled,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule":       catalogConfig.CronSchedule,
		"max_concurrent_jobs": catalogConfig.MaxConcurrentJobs,
		"sync_enabled":        catalogConfig.SyncEnabled,
	}).Info("Catalog sync scheduler configuration loaded")

	return &CatalogSyncService{
		scheduler:    scheduler,
		config:       catalogConfig,
		accountRepo:  accountRepo,
		catalogRepo:  catalogRepo,
		catalogStore: catalogStore,
		integrator:   integrator,
	}
}

// Start hydrates the in-memory catalog from the database, then schedules the
// periodic platform sync.
func (s *CatalogSyncService) Start(ctx context.Context) error {
	s.hydrateFromDatabase()

	if !s.config.SyncEnabled {
		logrus.Info("Catalog sync disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Starting catalog sync scheduler")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncAllCatalogs()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule catalog sync: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Stopping catalog sync scheduler")
		s.scheduler.Stop()
	}()

	return nil
}

// hydrateFromDatabase loads the last persisted snapshot into the in-memory
// store so the API serves reports before the first platform sync completes.
// Levels are loaded top-down so that child-loaded tracking is consistent.
func (s *CatalogSyncService) hydrateFromDatabase() {
	accounts, err := s.accountRepo.ListAccounts(nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to list accounts for catalog hydration")
		return
	}

	total := 0
	for _, account := range accounts {
		for _, level := range []domain.Level{domain.LevelCampaign, domain.LevelAdset, domain.LevelAd} {
			entities, err := s.catalogRepo.GetByAccountAndLevel(account.ID, level)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"account_id": account.ID,
					"level":      level,
				}).WithError(err).Error("Failed to load catalog entities for hydration")
				continue
			}
			if len(entities) == 0 {
				continue
			}
			s.catalogStore.ReplaceLevel(account.ID, level, entities)
			total += len(entities)
		}
	}

	logrus.WithFields(logrus.Fields{
		"accounts": len(accounts),
		"entities": total,
	}).Info("Catalog hydrated from database")
}

func (s *CatalogSyncService) syncAllCatalogs() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Catalog sync already running, skipping")
		return
	}
	s.syncRunning = true
	s.syncMutex.Unlock()

	startTime := time.Now()
	s.lastSyncStartedAt = startTime

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	logrus.Info("Starting catalog sync for all active accounts")

	accounts, err := s.accountRepo.ListAccounts([]domain.AdAccountStatus{domain.AdAccountStatusActive})
	if err != nil {
		logrus.WithError(err).Error("Failed to list accounts for catalog sync")
		return
	}

	if len(accounts) == 0 {
		logrus.Info("No active accounts found for catalog sync")
		return
	}

	semaphore := make(chan struct{}, s.config.MaxConcurrentJobs)
	var wg sync.WaitGroup

	for _, account := range accounts {
		if account.ExternalID == "" {
			logrus.WithField("account_id", account.ID).Warn("Account has no external id, skipping catalog sync")
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *domain.AdAccount) {
			defer func() {
				<-semaphore
				wg.Done()
			}()
			s.syncAccount(acc)
		}(account)
	}

	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"duration": time.Since(startTime).String(),
		"accounts": len(accounts),
	}).Info("Catalog sync completed")

	s.lastSyncCompletedAt = time.Now()
}

// syncAccount refreshes one account: health probe first, then each level
// top-down. Campaigns before ad sets before ads, so downgrade decisions never
// see children without their parents.
func (s *CatalogSyncService) syncAccount(acc *domain.AdAccount) {
	logrus.WithFields(logrus.Fields{
		"account_id":   acc.ID,
		"external_id":  acc.ExternalID,
		"account_name": acc.Name,
	}).Info("Syncing catalog for account")

	s.refreshAccountHealth(acc)

	for _, level := range []domain.Level{domain.LevelCampaign, domain.LevelAdset, domain.LevelAd} {
		entities, err := s.integrator.GetEntitiesByLevel(acc.ID, level)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": acc.ID,
				"level":      level,
			}).WithError(err).Error("Failed to fetch entities, keeping previous snapshot for level")
			continue
		}

		if err := s.catalogRepo.ReplaceForAccountLevel(acc.ID, level, entities); err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": acc.ID,
				"level":      level,
			}).WithError(err).Error("Failed to persist catalog snapshot")
			continue
		}

		s.catalogStore.ReplaceLevel(acc.ID, level, entities)

		logrus.WithFields(logrus.Fields{
			"account_id": acc.ID,
			"level":      level,
			"entities":   len(entities),
		}).Info("Catalog level synced")
	}
}

func (s *CatalogSyncService) refreshAccountHealth(acc *domain.AdAccount) {
	snapshot, err := s.integrator.GetAccountSnapshot(acc.ExternalID)
	if err != nil || snapshot == nil {
		logrus.WithField("account_id", acc.ID).WithError(err).Warn("Failed to probe account health, keeping previous state")
		return
	}

	if snapshot.Health == acc.Health {
		return
	}

	if err := s.accountRepo.UpdateHealth(acc.ID, snapshot.Health); err != nil {
		logrus.WithFields(logrus.Fields{
			"account_id": acc.ID,
			"health":     snapshot.Health,
		}).WithError(err).Error("Failed to update account health")
		return
	}

	logrus.WithFields(logrus.Fields{
		"account_id": acc.ID,
		"previous":   acc.Health,
		"current":    snapshot.Health,
	}).Info("Account health updated")
}

// ResyncAccount refreshes one account's catalog out of band, typically after
// a failed status toggle so the dashboard reflects platform ground truth.
func (s *CatalogSyncService) ResyncAccount(accountID string) {
	go func() {
		account, err := s.accountRepo.GetAccountByID(accountID)
		if err != nil || account == nil {
			logrus.WithField("account_id", accountID).WithError(err).Error("Failed to resolve account for resync")
			return
		}
		if account.ExternalID == "" {
			logrus.WithField("account_id", accountID).Warn("Account has no external id, skipping resync")
			return
		}

		logrus.WithField("account_id", accountID).Info("Starting out-of-band catalog resync")
		s.syncAccount(account)
	}()
}

// TriggerManualSync starts a full catalog sync outside the cron schedule.
func (s *CatalogSyncService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Catalog sync already running, ignoring manual trigger")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Starting manual catalog sync")
	go s.syncAllCatalogs()
}

// GetStatus returns the scheduler's current state.
func (s *CatalogSyncService) GetStatus() map[string]any {
	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_max_concurrent":    s.config.MaxConcurrentJobs,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}

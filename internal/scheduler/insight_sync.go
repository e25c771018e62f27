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
	"github.com/adstation/campaign-manager-api/pkg/utils"
)

// InsightIntegrator is the slice of the platform integrator the insight sync
// needs.
type InsightIntegrator interface {
	GetInsights(accountID string, level domain.Level, startDate, endDate time.Time, ingestedAt time.Time) ([]*domain.InsightRecord, error)
}

type InsightSyncConfig struct {
	CronSchedule        string
	LookbackDays        int
	RequestDelaySeconds int
	MaxConcurrentJobs   int
	SyncEnabled         bool
	RetentionDays       int
}

// InsightSyncService ingests the daily insight series for every active
// account. Rows are append-only: each run writes a fresh batch stamped with
// its own ingestion time and the report engine keeps the latest row per
// entity and day. Late platform restatements inside the lookback window are
// picked up naturally.
type InsightSyncService struct {
	scheduler           *gocron.Scheduler
	config              InsightSyncConfig
	accountRepo         repository.AccountRepository
	insightRepo         repository.InsightRecordRepository
	integrator          InsightIntegrator
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

func NewInsightSyncService(
	accountRepo repository.AccountRepository,
	insightRepo repository.InsightRecordRepository,
	integrator InsightIntegrator,
	appConfig *config.Config,
) *InsightSyncService {
	insightConfig := InsightSyncConfig{
		CronSchedule:        appConfig.InsightSync.CronSchedule,
		LookbackDays:        appConfig.InsightSync.LookbackDays,
		RequestDelaySeconds: appConfig.InsightSync.RequestDelaySeconds,
		MaxConcurrentJobs:   appConfig.InsightSync.MaxConcurrentJobs,
		SyncEnabled:         appConfig.InsightSync.Enabled,
		RetentionDays:       appConfig.Retention.InsightDays,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule":         insightConfig.CronSchedule,
		"lookback_days":         insightConfig.LookbackDays,
		"request_delay_seconds": insightConfig.RequestDelaySeconds,
		"max_concurrent_jobs":   insightConfig.MaxConcurrentJobs,
		"sync_enabled":          insightConfig.SyncEnabled,
		"retention_days":        insightConfig.RetentionDays,
	}).Info("Insight sync scheduler configuration loaded")

	return &InsightSyncService{
		scheduler:   scheduler,
		config:      insightConfig,
		accountRepo: accountRepo,
		insightRepo: insightRepo,
		integrator:  integrator,
	}
}

// Start schedules the periodic insight ingestion.
func (s *InsightSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Insight sync disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Starting insight sync scheduler")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncAllInsights()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule insight sync: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Stopping insight sync scheduler")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *InsightSyncService) syncAllInsights() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Insight sync already running, skipping")
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

	runID, _ := utils.GenerateID()
	logrus.WithField("run_id", runID).Info("Starting insight sync for all active accounts")

	accounts, err := s.accountRepo.ListAccounts([]domain.AdAccountStatus{domain.AdAccountStatusActive})
	if err != nil {
		logrus.WithError(err).Error("Failed to list accounts for insight sync")
		return
	}

	if len(accounts) == 0 {
		logrus.Info("No active accounts found for insight sync")
		return
	}

	startDate, endDate := s.syncWindow()
	logrus.WithFields(logrus.Fields{
		"lookback_days": s.config.LookbackDays,
		"start_date":    startDate.Format(time.DateOnly),
		"end_date":      endDate.Format(time.DateOnly),
	}).Info("Insight sync window")

	semaphore := make(chan struct{}, s.config.MaxConcurrentJobs)
	var wg sync.WaitGroup

	for _, account := range accounts {
		if account.ExternalID == "" {
			logrus.WithField("account_id", account.ID).Warn("Account has no external id, skipping insight sync")
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *domain.AdAccount) {
			defer func() {
				<-semaphore
				wg.Done()
			}()
			s.syncAccount(acc, startDate, endDate)
		}(account)
	}

	wg.Wait()

	s.applyRetention()

	logrus.WithFields(logrus.Fields{
		"run_id":   runID,
		"duration": time.Since(startTime).String(),
		"accounts": len(accounts),
	}).Info("Insight sync completed")

	s.lastSyncCompletedAt = time.Now()
}

// syncWindow covers the lookback period up to and including today, so the
// current partial day is refreshed on every run.
func (s *InsightSyncService) syncWindow() (time.Time, time.Time) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -s.config.LookbackDays)
	return startDate, endDate
}

// syncAccount pulls all three levels for one account. The whole batch of a
// run shares one ingestion timestamp, keeping dedup ordering stable across
// levels.
func (s *InsightSyncService) syncAccount(acc *domain.AdAccount, startDate, endDate time.Time) {
	ingestedAt := time.Now()

	logrus.WithFields(logrus.Fields{
		"account_id":   acc.ID,
		"external_id":  acc.ExternalID,
		"account_name": acc.Name,
	}).Info("Syncing insights for account")

	for _, level := range []domain.Level{domain.LevelCampaign, domain.LevelAdset, domain.LevelAd} {
		records, err := s.integrator.GetInsights(acc.ID, level, startDate, endDate, ingestedAt)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": acc.ID,
				"level":      level,
			}).WithError(err).Error("Failed to fetch insights, skipping level")
			continue
		}

		if err := s.insightRepo.SaveBatch(acc.ID, records); err != nil {
			logrus.WithFields(logrus.Fields{
				"account_id": acc.ID,
				"level":      level,
			}).WithError(err).Error("Failed to persist insight batch")
			continue
		}

		logrus.WithFields(logrus.Fields{
			"account_id": acc.ID,
			"level":      level,
			"records":    len(records),
		}).Info("Insight level synced")

		time.Sleep(time.Duration(s.config.RequestDelaySeconds) * time.Second)
	}
}

func (s *InsightSyncService) applyRetention() {
	if s.config.RetentionDays <= 0 {
		return
	}

	deleted, err := s.insightRepo.DeleteOlderThan(s.config.RetentionDays)
	if err != nil {
		logrus.WithField("retention_days", s.config.RetentionDays).WithError(err).Error("Failed to apply insight retention")
		return
	}

	if deleted > 0 {
		logrus.WithFields(logrus.Fields{
			"retention_days": s.config.RetentionDays,
			"deleted_rows":   deleted,
		}).Info("Insight retention applied")
	}
}

// TriggerManualSync starts an insight sync outside the cron schedule.
func (s *InsightSyncService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Insight sync already running, ignoring manual trigger")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Starting manual insight sync")
	go s.syncAllInsights()
}

// GetStatus returns the scheduler's current state.
func (s *InsightSyncService) GetStatus() map[string]any {
	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_lookback_days":     s.config.LookbackDays,
		"sync_max_concurrent":    s.config.MaxConcurrentJobs,
		"sync_request_delay_s":   s.config.RequestDelaySeconds,
		"retention_days":         s.config.RetentionDays,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}

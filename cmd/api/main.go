package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adstation/campaign-manager-api/infrastructure/database/postgres"
	"github.com/adstation/campaign-manager-api/infrastructure/integrator/meta"
	"github.com/adstation/campaign-manager-api/infrastructure/integrator/meta/metaclient"
	"github.com/adstation/campaign-manager-api/infrastructure/repository"
	"github.com/adstation/campaign-manager-api/internal/api"
	"github.com/adstation/campaign-manager-api/internal/config"
	"github.com/adstation/campaign-manager-api/internal/scheduler"
	"github.com/adstation/campaign-manager-api/internal/usecases/authenticating"
	"github.com/adstation/campaign-manager-api/internal/usecases/reporting"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level: %s, falling back to 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Log level set to: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	accountRepo := repository.NewAccountRepository(pgConn)
	catalogRepo := repository.NewCatalogEntityRepository(pgConn)
	insightRepo := repository.NewInsightRecordRepository(pgConn)

	authenticator := authenticating.NewService(cfg)

	tokenManager := metaclient.NewTokenManager(cfg)
	tokenManager.InitToken()
	go tokenManager.StartAutoRefresh()
	defer tokenManager.StopAutoRefresh()

	metaClient := metaclient.NewClient(cfg, tokenManager)
	metaIntegrator := meta.New(cfg, metaClient, accountRepo)

	catalogStore := reporting.NewCatalogStore()
	overrideStore := reporting.NewOverrideStore()

	engine := reporting.NewEngine(catalogStore, overrideStore, insightRepo, accountRepo)

	catalogSyncService := scheduler.NewCatalogSyncService(
		accountRepo,
		catalogRepo,
		catalogStore,
		metaIntegrator,
		cfg,
	)

	insightSyncService := scheduler.NewInsightSyncService(
		accountRepo,
		insightRepo,
		metaIntegrator,
		cfg,
	)

	toggler := reporting.NewToggler(
		catalogStore,
		overrideStore,
		metaIntegrator,
		metaIntegrator,
		catalogSyncService,
		time.Duration(cfg.Toggle.ConfirmDelaySeconds)*time.Second,
	)

	if err := catalogSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start the catalog sync scheduler")
	} else {
		logrus.Info("Catalog sync scheduler started")
	}

	if err := insightSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start the insight sync scheduler")
	} else {
		logrus.Info("Insight sync scheduler started")
	}

	server, err := api.New(
		cfg,
		engine,
		toggler,
		catalogStore,
		accountRepo,
		authenticator,
		catalogSyncService,
		insightSyncService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to ping PostgreSQL")
	}

	logrus.Info("PostgreSQL connection established")
	return conn
}

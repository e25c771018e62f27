package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App         App         `mapstructure:",squash"`
	Server      Server      `mapstructure:",squash"`
	Database    Database    `mapstructure:",squash"`
	Meta        Meta        `mapstructure:",squash"`
	Auth        Auth        `mapstructure:",squash"`
	CatalogSync CatalogSync `mapstructure:",squash"`
	InsightSync InsightSync `mapstructure:",squash"`
	Toggle      Toggle      `mapstructure:",squash"`
	Retention   Retention   `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type Meta struct {
	BaseURL        string    `mapstructure:"meta_base_url"`
	URL            string    `mapstructure:"-"`
	Version        string    `mapstructure:"meta_version"`
	AccessToken    string    `mapstructure:"meta_access_token"`
	AppID          string    `mapstructure:"meta_app_id"`
	AppSecret      string    `mapstructure:"meta_app_secret"`
	LongLivedToken string    `mapstructure:"meta_long_lived_token"`
	TokenExpiresAt time.Time `mapstructure:"-"`
}

type Auth struct {
	Secret string `mapstructure:"auth_secret"`
	// Users is provisioned through AUTH_USERS as a comma-separated list of
	// email|name|bcrypt-hash triples.
	UsersRaw string     `mapstructure:"auth_users"`
	Users    []AuthUser `mapstructure:"-"`
}

type AuthUser struct {
	Email        string
	Name         string
	PasswordHash string
}

type CatalogSync struct {
	CronSchedule      string `mapstructure:"catalog_sync_cron"`
	MaxConcurrentJobs int    `mapstructure:"catalog_sync_max_concurrent_jobs"`
	Enabled           bool   `mapstructure:"catalog_sync_enabled"`
}

type InsightSync struct {
	CronSchedule        string `mapstructure:"insight_sync_cron"`
	LookbackDays        int    `mapstructure:"insight_sync_lookback_days"`
	RequestDelaySeconds int    `mapstructure:"insight_sync_request_delay_seconds"`
	MaxConcurrentJobs   int    `mapstructure:"insight_sync_max_concurrent_jobs"`
	Enabled             bool   `mapstructure:"insight_sync_enabled"`
}

type Toggle struct {
	ConfirmDelaySeconds int `mapstructure:"toggle_confirm_delay_seconds"`
}

type Retention struct {
	InsightDays int `mapstructure:"insight_retention_days"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/campaigns")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("META_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("META_VERSION", "v22.0")
	viper.SetDefault("META_APP_ID", "your_app_id")
	viper.SetDefault("META_APP_SECRET", "your_app_secret")
	viper.SetDefault("META_ACCESS_TOKEN", "your_access_token") // ONLY LOCAL

	viper.SetDefault("AUTH_SECRET", "your_secret_key")
	viper.SetDefault("AUTH_USERS", "")

	viper.SetDefault("CATALOG_SYNC_CRON", "*/30 * * * *")
	viper.SetDefault("CATALOG_SYNC_MAX_CONCURRENT_JOBS", 3)
	viper.SetDefault("CATALOG_SYNC_ENABLED", false)

	viper.SetDefault("INSIGHT_SYNC_CRON", "0 3 * * *")
	viper.SetDefault("INSIGHT_SYNC_LOOKBACK_DAYS", 7)
	viper.SetDefault("INSIGHT_SYNC_REQUEST_DELAY_SECONDS", 2)
	viper.SetDefault("INSIGHT_SYNC_MAX_CONCURRENT_JOBS", 3)
	viper.SetDefault("INSIGHT_SYNC_ENABLED", false)

	viper.SetDefault("TOGGLE_CONFIRM_DELAY_SECONDS", 2)

	viper.SetDefault("INSIGHT_RETENTION_DAYS", 400)

	viper.SetDefault("LOG_LEVEL", "debug")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Using variables loaded by godotenv (viper could not read .env):", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Meta.URL = fmt.Sprintf("%s/%s", config.Meta.BaseURL, config.Meta.Version)

	config.Auth.Users = parseAuthUsers(config.Auth.UsersRaw)

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

func parseAuthUsers(raw string) []AuthUser {
	users := make([]AuthUser, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "|", 3)
		if len(parts) != 3 {
			logrus.WithField("entry", entry).Warn("Ignoring malformed AUTH_USERS entry")
			continue
		}
		users = append(users, AuthUser{
			Email:        parts[0],
			Name:         parts[1],
			PasswordHash: parts[2],
		})
	}
	return users
}

func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Could not determine the current directory:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../.env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info(".env file loaded from:", location)
			return
		}
	}

	logrus.Info("No .env file found, relying on environment variables")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/simaogato/herdledger-backend/pkg/logger"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	MongoDB  MongoDBConfig
	Ledger   LedgerConfig
	Snapshot SnapshotConfig
	Webhook  WebhookConfig
	Log      LogConfig
}

// LogConfig holds logger settings.
type LogConfig struct {
	Service string
	Level   string
}

// ServerConfig holds transport options.
type ServerConfig struct {
	GRPCPort string
	HTTPPort string
	APIToken string
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	ConnStr       string
	RunMigrations bool
}

// MongoDBConfig holds the snapshot archive settings. An empty URI disables the archive.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// LedgerConfig holds reconciliation settings.
type LedgerConfig struct {
	CurrencyPlaces int32
}

// SnapshotConfig holds the snapshot scheduler settings.
type SnapshotConfig struct {
	CronSchedule string
}

// WebhookConfig holds the settlement webhook settings. An empty URL disables it.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine; configuration may come from the environment.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetDefault("GRPC_PORT", ":8080")
	v.SetDefault("HTTP_PORT", "8081")
	v.SetDefault("API_TOKEN", "dev-token")
	v.SetDefault("DB_CONN_STR", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "herdledger")
	v.SetDefault("DB_RUN_MIGRATIONS", true)
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DB_NAME", "herdledger")
	v.SetDefault("LEDGER_CURRENCY_PLACES", 0)
	v.SetDefault("SNAPSHOT_CRON_SCHEDULE", "0 21 * * *")
	v.SetDefault("SETTLEMENT_WEBHOOK_URL", "")
	v.SetDefault("SETTLEMENT_WEBHOOK_TIMEOUT", "10s")
	v.SetDefault("SERVICE_NAME", "herdledger")
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()

	connStr := v.GetString("DB_CONN_STR")
	if connStr == "" {
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			v.GetString("DB_HOST"),
			v.GetString("DB_PORT"),
			v.GetString("DB_USER"),
			v.GetString("DB_PASSWORD"),
			v.GetString("DB_NAME"),
		)
	}

	cfg := &Config{
		Server: ServerConfig{
			GRPCPort: v.GetString("GRPC_PORT"),
			HTTPPort: v.GetString("HTTP_PORT"),
			APIToken: v.GetString("API_TOKEN"),
		},
		Database: DatabaseConfig{
			ConnStr:       connStr,
			RunMigrations: v.GetBool("DB_RUN_MIGRATIONS"),
		},
		MongoDB: MongoDBConfig{
			URI:    v.GetString("MONGODB_URI"),
			DBName: v.GetString("MONGODB_DB_NAME"),
		},
		Ledger: LedgerConfig{
			CurrencyPlaces: v.GetInt32("LEDGER_CURRENCY_PLACES"),
		},
		Snapshot: SnapshotConfig{
			CronSchedule: v.GetString("SNAPSHOT_CRON_SCHEDULE"),
		},
		Webhook: WebhookConfig{
			URL:     v.GetString("SETTLEMENT_WEBHOOK_URL"),
			Timeout: v.GetDuration("SETTLEMENT_WEBHOOK_TIMEOUT"),
		},
		Log: LogConfig{
			Service: v.GetString("SERVICE_NAME"),
			Level:   v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.Server.GRPCPort == "":
		return errors.New("GRPC_PORT must be provided")
	case c.Server.HTTPPort == "":
		return errors.New("HTTP_PORT must be provided")
	case c.Server.APIToken == "":
		return errors.New("API_TOKEN must not be empty")
	}

	if c.Ledger.CurrencyPlaces < 0 || c.Ledger.CurrencyPlaces > 8 {
		return fmt.Errorf("LEDGER_CURRENCY_PLACES must be between 0 and 8, got %d", c.Ledger.CurrencyPlaces)
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if c.MongoDB.URI != "" {
		if _, err := cron.ParseStandard(c.Snapshot.CronSchedule); err != nil {
			return fmt.Errorf("SNAPSHOT_CRON_SCHEDULE is invalid: %w", err)
		}
	}

	if c.Webhook.URL != "" && c.Webhook.Timeout <= 0 {
		return errors.New("SETTLEMENT_WEBHOOK_TIMEOUT must be positive")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}

	return nil
}

// HTTPAddr returns the listen address of the HTTP surface.
func (c *Config) HTTPAddr() string {
	return ":" + c.Server.HTTPPort
}

// LoggerOptions returns the options the process logger is built with.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{Service: c.Log.Service, Level: c.Log.Level}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_CONN_STR", "")
	t.Setenv("MONGODB_URI", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.GRPCPort)
	assert.Equal(t, "8081", cfg.Server.HTTPPort)
	assert.Equal(t, ":8081", cfg.HTTPAddr())
	assert.Equal(t, "dev-token", cfg.Server.APIToken)
	assert.Contains(t, cfg.Database.ConnStr, "dbname=herdledger")
	assert.True(t, cfg.Database.RunMigrations)
	assert.Equal(t, int32(0), cfg.Ledger.CurrencyPlaces)
	assert.Equal(t, "0 21 * * *", cfg.Snapshot.CronSchedule)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
	assert.Empty(t, cfg.MongoDB.URI)
	assert.Equal(t, "herdledger", cfg.LoggerOptions().Service)
	assert.Equal(t, "info", cfg.LoggerOptions().Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_CONN_STR", "postgres://ledger@db/herd")
	t.Setenv("API_TOKEN", "s3cret")
	t.Setenv("LEDGER_CURRENCY_PLACES", "2")
	t.Setenv("SETTLEMENT_WEBHOOK_URL", "https://hooks.example.com/sales")
	t.Setenv("SETTLEMENT_WEBHOOK_TIMEOUT", "3s")
	t.Setenv("DB_RUN_MIGRATIONS", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://ledger@db/herd", cfg.Database.ConnStr)
	assert.Equal(t, "s3cret", cfg.Server.APIToken)
	assert.Equal(t, int32(2), cfg.Ledger.CurrencyPlaces)
	assert.Equal(t, "https://hooks.example.com/sales", cfg.Webhook.URL)
	assert.Equal(t, 3*time.Second, cfg.Webhook.Timeout)
	assert.False(t, cfg.Database.RunMigrations)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=from_file\n"), 0o600))
	t.Setenv("DB_CONN_STR", "")
	t.Cleanup(func() { os.Unsetenv("DB_NAME") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Contains(t, cfg.Database.ConnStr, "dbname=from_file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{GRPCPort: ":8080", HTTPPort: "8081", APIToken: "t"},
			MongoDB:  MongoDBConfig{DBName: "herdledger"},
			Snapshot: SnapshotConfig{CronSchedule: "0 21 * * *"},
			Webhook:  WebhookConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty token", mutate: func(c *Config) { c.Server.APIToken = "" }, wantErr: "API_TOKEN"},
		{name: "negative places", mutate: func(c *Config) { c.Ledger.CurrencyPlaces = -1 }, wantErr: "LEDGER_CURRENCY_PLACES"},
		{
			name: "bad cron with archive enabled",
			mutate: func(c *Config) {
				c.MongoDB.URI = "mongodb://localhost"
				c.Snapshot.CronSchedule = "every evening"
			},
			wantErr: "SNAPSHOT_CRON_SCHEDULE",
		},
		{
			name:    "bad cron ignored without archive",
			mutate:  func(c *Config) { c.Snapshot.CronSchedule = "every evening" },
			wantErr: "",
		},
		{
			name: "webhook without timeout",
			mutate: func(c *Config) {
				c.Webhook.URL = "https://hooks.example.com"
				c.Webhook.Timeout = 0
			},
			wantErr: "SETTLEMENT_WEBHOOK_TIMEOUT",
		},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

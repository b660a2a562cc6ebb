package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Symbols, 3)
	assert.Equal(t, "ES", cfg.Symbols[0].Symbol)
	assert.Equal(t, 5890.00, cfg.Symbols[0].InitialPrice)
	assert.Equal(t, time.Second, cfg.Market.TickInterval.Duration)
	assert.Equal(t, 5*time.Second, cfg.Market.BarInterval.Duration)
	assert.Equal(t, 2000, cfg.Market.BarHistory)
	assert.Equal(t, 50000.0, cfg.Account.StartingBalance)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "live" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"duplicate symbol", func(c *Config) { c.Symbols = append(c.Symbols, c.Symbols[0]) }},
		{"zero tick size", func(c *Config) { c.Symbols[0].TickSize = 0 }},
		{"negative initial price", func(c *Config) { c.Symbols[0].InitialPrice = -1 }},
		{"unknown benchmark", func(c *Config) { c.Market.Benchmark = "GC" }},
		{"zero tick interval", func(c *Config) { c.Market.TickInterval.Duration = 0 }},
		{"zero bar history", func(c *Config) { c.Market.BarHistory = 0 }},
		{"zero balance", func(c *Config) { c.Account.StartingBalance = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"postgres enabled without host", func(c *Config) {
			c.Postgres.Enabled = true
			c.Postgres.Host = ""
		}},
		{"redis enabled without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}},
		{"s3 enabled without bucket", func(c *Config) {
			c.S3.Enabled = true
			c.S3.Bucket = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromTOMLReplacesSymbolUniverse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "sim"
log_level = "debug"

[[symbols]]
symbol = "GC"
tick_size = 0.1
point_value = 100.0
volatility = 0.0002
initial_price = 2650.0

[market]
tick_interval = "250ms"
bar_interval = "10s"
benchmark = "GC"

[server]
port = 9001
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Symbols, 1)
	assert.Equal(t, "GC", cfg.Symbols[0].Symbol)
	assert.Equal(t, 250*time.Millisecond, cfg.Market.TickInterval.Duration)
	assert.Equal(t, 10*time.Second, cfg.Market.BarInterval.Duration)
	assert.Equal(t, "GC", cfg.Market.Benchmark)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Sections the file omits keep their defaults.
	assert.Equal(t, 50000.0, cfg.Account.StartingBalance)
	assert.Equal(t, 2000, cfg.Market.BarHistory)
}

func TestLoadWithoutSymbolsKeepsDefaultUniverse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 8080\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Symbols, 3)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FUTSIM_SERVER_PORT", "9999")
	t.Setenv("FUTSIM_MARKET_TICK_INTERVAL", "2s")
	t.Setenv("FUTSIM_ACCOUNT_STARTING_BALANCE", "100000")
	t.Setenv("FUTSIM_REDIS_ENABLED", "true")
	t.Setenv("FUTSIM_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("FUTSIM_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FUTSIM_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Market.TickInterval.Duration)
	assert.Equal(t, 100000.0, cfg.Account.StartingBalance)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "topsecret"
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "s3secret"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Server.APIKey)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.S3.SecretKey)

	// Empty secrets stay empty, and the original is untouched.
	assert.Empty(t, out.Redis.Password)
	assert.Equal(t, "topsecret", cfg.Server.APIKey)

	// The symbols slice is a copy.
	out.Symbols[0].Symbol = "XX"
	assert.Equal(t, "ES", cfg.Symbols[0].Symbol)
}

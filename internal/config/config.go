// Package config defines the top-level configuration for the futures
// simulator and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by FUTSIM_* environment variables.
type Config struct {
	Symbols  []SymbolConfig `toml:"symbols"`
	Market   MarketConfig   `toml:"market"`
	Account  AccountConfig  `toml:"account"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// SymbolConfig describes one simulated instrument.
type SymbolConfig struct {
	Symbol       string  `toml:"symbol"`
	TickSize     float64 `toml:"tick_size"`
	PointValue   float64 `toml:"point_value"`
	Volatility   float64 `toml:"volatility"`
	InitialPrice float64 `toml:"initial_price"`
}

// MarketConfig holds price-process and bar-aggregation parameters.
type MarketConfig struct {
	TickInterval duration `toml:"tick_interval"`
	BarInterval  duration `toml:"bar_interval"`
	BarHistory   int      `toml:"bar_history"`
	DepthLevels  int      `toml:"depth_levels"`
	Benchmark    string   `toml:"benchmark"`
}

// AccountConfig holds the simulated account parameters.
type AccountConfig struct {
	StartingBalance   float64 `toml:"starting_balance"`
	MarginPerContract float64 `toml:"margin_per_contract"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// PostgresConfig holds PostgreSQL connection parameters. Persistence is
// optional; when Enabled is false the simulator runs purely in memory.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Optional.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for trade journal
// exports. Optional.
type S3Config struct {
	Enabled        bool     `toml:"enabled"`
	Endpoint       string   `toml:"endpoint"`
	Region         string   `toml:"region"`
	Bucket         string   `toml:"bucket"`
	AccessKey      string   `toml:"access_key"`
	SecretKey      string   `toml:"secret_key"`
	UseSSL         bool     `toml:"use_ssl"`
	ForcePathStyle bool     `toml:"force_path_style"`
	ExportInterval duration `toml:"export_interval"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the stock simulation universe and
// reasonable operational defaults. These match config.example.toml.
func Defaults() Config {
	return Config{
		Symbols: []SymbolConfig{
			{Symbol: "ES", TickSize: 0.25, PointValue: 50.0, Volatility: 0.0003, InitialPrice: 5890.00},
			{Symbol: "NQ", TickSize: 0.25, PointValue: 20.0, Volatility: 0.0004, InitialPrice: 21150.00},
			{Symbol: "CL", TickSize: 0.01, PointValue: 1000.0, Volatility: 0.0005, InitialPrice: 71.50},
		},
		Market: MarketConfig{
			TickInterval: duration{1 * time.Second},
			BarInterval:  duration{5 * time.Second},
			BarHistory:   2000,
			DepthLevels:  10,
			Benchmark:    "ES",
		},
		Account: AccountConfig{
			StartingBalance:   50000.0,
			MarginPerContract: 6930.0,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "futsim",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "futsim-data",
			UseSSL:         false,
			ForcePathStyle: true,
			ExportInterval: duration{5 * time.Minute},
		},
		Mode:     "sim",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"sim": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: sim)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Symbols
	if len(c.Symbols) == 0 {
		errs = append(errs, "symbols: at least one symbol must be configured")
	}
	seen := make(map[string]bool, len(c.Symbols))
	benchmarkFound := false
	for i, s := range c.Symbols {
		if s.Symbol == "" {
			errs = append(errs, fmt.Sprintf("symbols[%d]: symbol must not be empty", i))
			continue
		}
		if seen[s.Symbol] {
			errs = append(errs, fmt.Sprintf("symbols: duplicate symbol %q", s.Symbol))
		}
		seen[s.Symbol] = true
		if s.TickSize <= 0 {
			errs = append(errs, fmt.Sprintf("symbols[%s]: tick_size must be > 0", s.Symbol))
		}
		if s.PointValue <= 0 {
			errs = append(errs, fmt.Sprintf("symbols[%s]: point_value must be > 0", s.Symbol))
		}
		if s.Volatility <= 0 {
			errs = append(errs, fmt.Sprintf("symbols[%s]: volatility must be > 0", s.Symbol))
		}
		if s.InitialPrice <= 0 {
			errs = append(errs, fmt.Sprintf("symbols[%s]: initial_price must be > 0", s.Symbol))
		}
		if s.Symbol == c.Market.Benchmark {
			benchmarkFound = true
		}
	}

	// Market
	if c.Market.TickInterval.Duration <= 0 {
		errs = append(errs, "market: tick_interval must be > 0")
	}
	if c.Market.BarInterval.Duration <= 0 {
		errs = append(errs, "market: bar_interval must be > 0")
	}
	if c.Market.BarHistory < 1 {
		errs = append(errs, "market: bar_history must be >= 1")
	}
	if c.Market.DepthLevels < 1 {
		errs = append(errs, "market: depth_levels must be >= 1")
	}
	if c.Market.Benchmark != "" && !benchmarkFound {
		errs = append(errs, fmt.Sprintf("market: benchmark %q is not a configured symbol", c.Market.Benchmark))
	}

	// Account
	if c.Account.StartingBalance <= 0 {
		errs = append(errs, "account: starting_balance must be > 0")
	}
	if c.Account.MarginPerContract < 0 {
		errs = append(errs, "account: margin_per_contract must be >= 0")
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.ExportInterval.Duration <= 0 {
			errs = append(errs, "s3: export_interval must be > 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

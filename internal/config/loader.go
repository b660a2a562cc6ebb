package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FUTSIM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. An empty path skips the
// file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		fileCfg := Defaults()
		// A [[symbols]] table in the file replaces the default universe
		// rather than appending to it.
		fileCfg.Symbols = nil
		if _, err := toml.DecodeFile(path, &fileCfg); err != nil {
			return nil, err
		}
		if len(fileCfg.Symbols) == 0 {
			fileCfg.Symbols = cfg.Symbols
		}
		cfg = fileCfg
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FUTSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject connection details and secrets at deploy
// time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Market ──
	setDuration(&cfg.Market.TickInterval, "FUTSIM_MARKET_TICK_INTERVAL")
	setDuration(&cfg.Market.BarInterval, "FUTSIM_MARKET_BAR_INTERVAL")
	setInt(&cfg.Market.BarHistory, "FUTSIM_MARKET_BAR_HISTORY")
	setInt(&cfg.Market.DepthLevels, "FUTSIM_MARKET_DEPTH_LEVELS")
	setStr(&cfg.Market.Benchmark, "FUTSIM_MARKET_BENCHMARK")

	// ── Account ──
	setFloat64(&cfg.Account.StartingBalance, "FUTSIM_ACCOUNT_STARTING_BALANCE")
	setFloat64(&cfg.Account.MarginPerContract, "FUTSIM_ACCOUNT_MARGIN_PER_CONTRACT")

	// ── Server ──
	setInt(&cfg.Server.Port, "FUTSIM_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FUTSIM_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "FUTSIM_SERVER_API_KEY")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "FUTSIM_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "FUTSIM_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "FUTSIM_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FUTSIM_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FUTSIM_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FUTSIM_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FUTSIM_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FUTSIM_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "FUTSIM_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FUTSIM_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FUTSIM_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "FUTSIM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "FUTSIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FUTSIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FUTSIM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FUTSIM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FUTSIM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FUTSIM_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "FUTSIM_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "FUTSIM_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FUTSIM_S3_REGION")
	setStr(&cfg.S3.Bucket, "FUTSIM_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FUTSIM_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FUTSIM_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FUTSIM_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FUTSIM_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ExportInterval, "FUTSIM_S3_EXPORT_INTERVAL")

	// ── Top-level ──
	setStr(&cfg.Mode, "FUTSIM_MODE")
	setStr(&cfg.LogLevel, "FUTSIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

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
// built-in defaults, applies CRYPTOCORE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CRYPTOCORE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Exchange ──
	setStr(&cfg.Exchange.Name, "CRYPTOCORE_EXCHANGE_NAME")
	setStr(&cfg.Exchange.ApiKey, "CRYPTOCORE_EXCHANGE_API_KEY")
	setStr(&cfg.Exchange.ApiSecret, "CRYPTOCORE_EXCHANGE_API_SECRET")
	setStr(&cfg.Exchange.BaseURL, "CRYPTOCORE_EXCHANGE_BASE_URL")
	setStr(&cfg.Exchange.WsURL, "CRYPTOCORE_EXCHANGE_WS_URL")
	setFloat64(&cfg.Exchange.FeeBps, "CRYPTOCORE_EXCHANGE_FEE_BPS")

	// ── Risk ──
	setFloat64(&cfg.InitialBalance, "CRYPTOCORE_INITIAL_BALANCE")
	setFloat64(&cfg.Risk.MaxPositionSize, "CRYPTOCORE_RISK_MAX_POSITION_SIZE")
	setFloat64(&cfg.Risk.StopLossPct, "CRYPTOCORE_RISK_STOP_LOSS_PCT")
	setFloat64(&cfg.Risk.TakeProfitPct, "CRYPTOCORE_RISK_TAKE_PROFIT_PCT")
	setFloat64(&cfg.Risk.MaxDrawdownPct, "CRYPTOCORE_RISK_MAX_DRAWDOWN_PCT")
	setFloat64(&cfg.Risk.MaxRiskPerTrade, "CRYPTOCORE_RISK_MAX_RISK_PER_TRADE")

	// ── Engine ──
	setStringSlice(&cfg.Engine.Symbols, "CRYPTOCORE_ENGINE_SYMBOLS")
	setDuration(&cfg.Engine.UpdateInterval, "CRYPTOCORE_ENGINE_UPDATE_INTERVAL")
	setDuration(&cfg.Engine.StrategyInterval, "CRYPTOCORE_ENGINE_STRATEGY_INTERVAL")
	setInt(&cfg.Engine.CandleLimit, "CRYPTOCORE_ENGINE_CANDLE_LIMIT")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "CRYPTOCORE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "CRYPTOCORE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "CRYPTOCORE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CRYPTOCORE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CRYPTOCORE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CRYPTOCORE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CRYPTOCORE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CRYPTOCORE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.MaxConns, "CRYPTOCORE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.MinConns, "CRYPTOCORE_POSTGRES_POOL_MIN_CONNS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "CRYPTOCORE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "CRYPTOCORE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CRYPTOCORE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CRYPTOCORE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CRYPTOCORE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CRYPTOCORE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CRYPTOCORE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "CRYPTOCORE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CRYPTOCORE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CRYPTOCORE_S3_REGION")
	setStr(&cfg.S3.Bucket, "CRYPTOCORE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CRYPTOCORE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CRYPTOCORE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CRYPTOCORE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CRYPTOCORE_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CRYPTOCORE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CRYPTOCORE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CRYPTOCORE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CRYPTOCORE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CRYPTOCORE_MODE")
	setStr(&cfg.LogLevel, "CRYPTOCORE_LOG_LEVEL")
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

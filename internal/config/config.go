// Package config defines the top-level configuration for the trading core and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CRYPTOCORE_* environment variables.
type Config struct {
	Exchange       ExchangeConfig   `toml:"exchange"`
	InitialBalance float64          `toml:"initial_balance"`
	Risk           RiskConfig       `toml:"risk_params"`
	Strategies     []StrategyConfig `toml:"strategies"`
	Engine         EngineConfig     `toml:"engine"`
	Postgres       PostgresConfig   `toml:"postgres"`
	Redis          RedisConfig      `toml:"redis"`
	S3             S3Config         `toml:"s3"`
	Notify         NotifyConfig     `toml:"notify"`
	Mode           string           `toml:"mode"`
	LogLevel       string           `toml:"log_level"`
}

// ExchangeConfig holds exchange connectivity parameters and credentials.
type ExchangeConfig struct {
	Name      string  `toml:"name"` // "binance" or "paper"
	ApiKey    string  `toml:"api_key"`
	ApiSecret string  `toml:"api_secret"`
	BaseURL   string  `toml:"base_url"`
	WsURL     string  `toml:"ws_url"`
	FeeBps    float64 `toml:"fee_bps"` // paper-exchange simulated fee
}

// RiskConfig holds the pre-trade gating and sizing parameters.
type RiskConfig struct {
	MaxPositionSize float64 `toml:"max_position_size"`
	StopLossPct     float64 `toml:"stop_loss_pct"`
	TakeProfitPct   float64 `toml:"take_profit_pct"`
	MaxDrawdownPct  float64 `toml:"max_drawdown_pct"`
	MaxRiskPerTrade float64 `toml:"max_risk_per_trade"`
}

// StrategyConfig names one strategy to load with its parameters.
type StrategyConfig struct {
	Name   string         `toml:"name"`
	Params map[string]any `toml:"params"`
}

// EngineConfig holds the cycle periods and the traded universe.
type EngineConfig struct {
	Symbols          []string `toml:"symbols"`
	UpdateInterval   duration `toml:"update_interval"`
	StrategyInterval duration `toml:"strategy_interval"`
	CandleLimit      int      `toml:"candle_limit"` // bars kept per symbol
}

// PostgresConfig holds trade-journal database parameters.
type PostgresConfig struct {
	Enabled  bool   `toml:"enabled"`
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`
	MaxConns int    `toml:"pool_max_conns"`
	MinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds price-cache connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	CacheTTL   int    `toml:"cache_ttl_minutes"` // price key expiry, 0 = no expiry
}

// S3Config holds report-upload object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
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

// UpdateIntervalDuration returns the data-refresh cycle period.
func (e EngineConfig) UpdateIntervalDuration() time.Duration { return e.UpdateInterval.Duration }

// StrategyIntervalDuration returns the strategy-evaluation cycle period.
func (e EngineConfig) StrategyIntervalDuration() time.Duration { return e.StrategyInterval.Duration }

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			Name:    "paper",
			BaseURL: "https://api.binance.com",
			WsURL:   "wss://stream.binance.com:9443/stream",
			FeeBps:  10,
		},
		InitialBalance: 10_000,
		Risk: RiskConfig{
			MaxPositionSize: 1.0,
			StopLossPct:     0.02,
			TakeProfitPct:   0.04,
			MaxDrawdownPct:  0.20,
			MaxRiskPerTrade: 0.02,
		},
		Strategies: []StrategyConfig{
			{Name: "momentum", Params: map[string]any{}},
		},
		Engine: EngineConfig{
			Symbols:          []string{"BTC/USDT"},
			UpdateInterval:   duration{1 * time.Second},
			StrategyInterval: duration{5 * time.Second},
			CandleLimit:      500,
		},
		Postgres: PostgresConfig{
			Enabled:  false,
			Host:     "localhost",
			Port:     5432,
			Database: "cryptocore",
			User:     "postgres",
			SSLMode:  "disable",
			MaxConns: 10,
			MinConns: 2,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			CacheTTL:   5,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "cryptocore-reports",
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"trade_executed", "order_failed", "drawdown"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade": true,
	"paper": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, paper)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Exchange — live trading needs credentials.
	switch strings.ToLower(c.Exchange.Name) {
	case "paper":
	case "binance":
		if strings.ToLower(c.Mode) == "trade" {
			if c.Exchange.ApiKey == "" || c.Exchange.ApiSecret == "" {
				errs = append(errs, "exchange: api_key and api_secret are required for mode trade")
			}
		}
		if c.Exchange.BaseURL == "" {
			errs = append(errs, "exchange: base_url must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("exchange: unknown name %q (valid: binance, paper)", c.Exchange.Name))
	}

	if c.InitialBalance <= 0 {
		errs = append(errs, "initial_balance must be > 0")
	}

	// Risk parameters.
	if c.Risk.MaxPositionSize <= 0 {
		errs = append(errs, "risk_params: max_position_size must be > 0")
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct >= 1 {
		errs = append(errs, "risk_params: stop_loss_pct must be in (0, 1)")
	}
	if c.Risk.TakeProfitPct <= 0 || c.Risk.TakeProfitPct >= 1 {
		errs = append(errs, "risk_params: take_profit_pct must be in (0, 1)")
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct >= 1 {
		errs = append(errs, "risk_params: max_drawdown_pct must be in (0, 1)")
	}
	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade >= 1 {
		errs = append(errs, "risk_params: max_risk_per_trade must be in (0, 1)")
	}

	// Strategies.
	if len(c.Strategies) == 0 {
		errs = append(errs, "strategies: at least one strategy must be configured")
	}
	for i, s := range c.Strategies {
		if strings.TrimSpace(s.Name) == "" {
			errs = append(errs, fmt.Sprintf("strategies[%d]: name must not be empty", i))
		}
	}

	// Engine cycles.
	if len(c.Engine.Symbols) == 0 {
		errs = append(errs, "engine: at least one symbol must be configured")
	}
	if c.Engine.UpdateInterval.Duration <= 0 {
		errs = append(errs, "engine: update_interval must be > 0")
	}
	if c.Engine.StrategyInterval.Duration <= 0 {
		errs = append(errs, "engine: strategy_interval must be > 0")
	}
	if c.Engine.CandleLimit < 2 {
		errs = append(errs, "engine: candle_limit must be >= 2")
	}

	// Postgres — only when journaling is enabled.
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
		if c.Postgres.MaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.MinConns < 0 || c.Postgres.MinConns > c.Postgres.MaxConns {
			errs = append(errs, "postgres: pool_min_conns must be in [0, pool_max_conns]")
		}
	}

	// Redis.
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3.
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

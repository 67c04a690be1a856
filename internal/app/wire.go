package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/cryptocore/internal/blob/s3"
	"github.com/alanyoungcy/cryptocore/internal/cache/redis"
	"github.com/alanyoungcy/cryptocore/internal/config"
	"github.com/alanyoungcy/cryptocore/internal/domain"
	"github.com/alanyoungcy/cryptocore/internal/engine"
	"github.com/alanyoungcy/cryptocore/internal/exchange"
	"github.com/alanyoungcy/cryptocore/internal/exchange/binance"
	"github.com/alanyoungcy/cryptocore/internal/marketdata"
	"github.com/alanyoungcy/cryptocore/internal/notify"
	"github.com/alanyoungcy/cryptocore/internal/portfolio"
	"github.com/alanyoungcy/cryptocore/internal/risk"
	"github.com/alanyoungcy/cryptocore/internal/store/postgres"
	"github.com/alanyoungcy/cryptocore/internal/strategy"
)

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function. Optional collaborators
// (Journal, Publisher, Reports, Stream) are nil when their backing service is
// disabled in the configuration.
type Dependencies struct {
	Market    *marketdata.Service
	Portfolio *portfolio.Portfolio
	Risk      *risk.Manager
	Engine    *engine.Engine

	PriceCache domain.PriceCache
	Journal    domain.TradeJournal
	Publisher  domain.TradePublisher
	Reports    domain.ReportWriter
	Notifier   *notify.Notifier

	// Stream is the live ticker feed, present only for the binance
	// exchange with Redis enabled.
	Stream *binance.PriceStream
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that must
// be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis price cache + trade bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Redis.CacheTTL) * time.Minute
		deps.PriceCache = redis.NewPriceCache(redisClient, ttl)
		deps.Publisher = redis.NewTradeBus(redisClient)
	}

	// --- PostgreSQL trade journal ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
		deps.Journal = postgres.NewJournalStore(pgClient.Pool())
	}

	// --- S3 report storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Reports = s3blob.NewReportWriter(s3Client, "reports")
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Market data and execution ---
	// Candles always come from the Binance REST API; credentials are only
	// needed when it also executes orders.
	restClient := binance.NewClient(
		cfg.Exchange.BaseURL,
		cfg.Exchange.ApiKey,
		cfg.Exchange.ApiSecret,
		"1m",
		logger,
	)

	deps.Market = marketdata.New(
		restClient,
		cfg.Engine.Symbols,
		cfg.Engine.CandleLimit,
		deps.PriceCache,
		logger,
	)

	var adapter domain.ExchangeAdapter
	switch cfg.Exchange.Name {
	case "binance":
		adapter = restClient
	default:
		adapter = exchange.NewPaper(cfg.Exchange.FeeBps/10000, logger)
	}

	if cfg.Exchange.Name == "binance" && deps.PriceCache != nil {
		deps.Stream = binance.NewPriceStream(cfg.Exchange.WsURL, cfg.Engine.Symbols, deps.PriceCache, logger)
	}

	deps.Portfolio = portfolio.New(cfg.InitialBalance, logger)
	deps.Risk = risk.NewManager(risk.Config{
		MaxPositionSize: cfg.Risk.MaxPositionSize,
		StopLossPct:     cfg.Risk.StopLossPct,
		TakeProfitPct:   cfg.Risk.TakeProfitPct,
		MaxDrawdownPct:  cfg.Risk.MaxDrawdownPct,
		MaxRiskPerTrade: cfg.Risk.MaxRiskPerTrade,
	}, logger)

	specs := make([]engine.StrategySpec, 0, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		specs = append(specs, engine.StrategySpec{Name: s.Name, Params: strategy.Params(s.Params)})
	}

	deps.Engine = engine.New(
		engine.Config{
			UpdateInterval:   cfg.Engine.UpdateIntervalDuration(),
			StrategyInterval: cfg.Engine.StrategyIntervalDuration(),
			Strategies:       specs,
		},
		deps.Market,
		strategy.NewRegistry(logger),
		deps.Risk,
		deps.Portfolio,
		adapter,
		deps.Journal,
		deps.Publisher,
		deps.Notifier,
		logger,
	)

	return deps, cleanup, nil
}

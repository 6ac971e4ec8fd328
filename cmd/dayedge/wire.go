package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/analysis"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector/alpaca"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/collector/yahoo"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/config"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/logger"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/metrics"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/news/newsapi"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier/telegram"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/notifier/webhook"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/scan"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/storage/archive"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/storage/scancache"
)

// restoreTimeout bounds loading persisted scans at startup.
const restoreTimeout = 30 * time.Second

// components is everything a command needs, built from one Config.
type components struct {
	cfg      *config.Config
	log      *zap.Logger
	location *time.Location
	scanner  *app.Scanner
	metrics  *metrics.Registry
	closers  []func() error
}

// Close stops the scanner and releases storage connections.
func (c *components) Close() {
	c.scanner.Stop()
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			c.log.Warn("closing resource", zap.Error(err))
		}
	}
	_ = c.log.Sync()
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// build wires the scan pipeline, storage, notifiers and metrics.
func build(ctx context.Context, cfg *config.Config) (*components, error) {
	log, err := logger.NewWithLevel(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	c := &components{cfg: cfg, log: log, location: loc}

	src, err := buildSource(cfg, loc)
	if err != nil {
		return nil, err
	}
	newsSrc := buildNews(cfg, loc)

	extractor := analysis.NewExtractor(
		analysis.WithNearHighTolerance(cfg.Scoring.NearHighTolerance),
		analysis.WithStrongCloseFraction(cfg.Scoring.StrongCloseFraction),
	)
	scorer := analysis.NewScorer(core.GapPolicy(cfg.Scoring.GapPolicy))

	engine := scan.NewEngine(src, newsSrc, extractor, scorer, scan.Config{
		Concurrency:   cfg.Scan.Concurrency,
		SymbolTimeout: cfg.Scan.SymbolTimeout,
		NewsTimeout:   cfg.Scan.NewsTimeout,
		BatchSize:     cfg.Scan.BatchSize,
	}, log.Named("scan"))

	backend, closeFn, err := buildBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if closeFn != nil {
		c.closers = append(c.closers, closeFn)
	}

	cache := scancache.New(backend, cfg.Storage.HistorySize, log.Named("scancache"))
	restoreCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
	if err := cache.Restore(restoreCtx); err != nil {
		log.Warn("could not restore persisted scans", zap.String("backend", backend.Name()), zap.Error(err))
	}
	cancel()

	c.scanner = app.NewScanner(engine, cache, app.Config{
		Universe:         cfg.Universe,
		ShowAll:          cfg.Scan.ShowAll,
		RunTimeout:       cfg.Scan.RunTimeout,
		Location:         loc,
		MaxJobs:          cfg.Server.MaxJobs,
		MorningMinChange: cfg.Scan.MorningMinChange,
	}, log.Named("app"))

	notifiers, err := buildNotifiers(cfg.Notifiers, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.scanner.SetNotifiers(notifiers)

	if cfg.Metrics.Enabled {
		c.metrics = metrics.NewRegistry()
		c.scanner.SetMetrics(c.metrics)
	}

	log.Info("scanner ready",
		zap.String("provider", src.Name()),
		zap.String("news", newsSrc.Name()),
		zap.String("storage", backend.Name()),
		zap.Int("universe", len(c.scanner.Universe())),
		zap.Int("notifiers", len(notifiers.GetAll())),
	)
	return c, nil
}

func buildSource(cfg *config.Config, loc *time.Location) (collector.Source, error) {
	registry := collector.NewRegistry()
	registry.Register("yahoo", yahoo.Factory)
	registry.Register("alpaca", alpaca.Factory)

	md := cfg.MarketData
	src, err := registry.Build(md.Provider, collector.Config{
		BaseURL:   md.BaseURL,
		APIKey:    md.APIKey,
		APISecret: md.APISecret,
		Timeout:   md.Timeout,
		Location:  loc,
		Params: collector.SnapshotParams{
			MovingAverageDays: md.MovingAverageDays,
			AverageVolumeDays: md.AverageVolumeDays,
			MovingAverageType: md.MovingAverageType,
		},
	})
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	return collector.NewRateLimited(src, md.RatePerSecond, md.Burst), nil
}

func buildNews(cfg *config.Config, loc *time.Location) news.Source {
	if cfg.News.Provider != "newsapi" {
		return news.None{}
	}
	client := newsapi.New(cfg.News.APIKey,
		newsapi.WithBaseURL(cfg.News.BaseURL),
		newsapi.WithTimeout(cfg.News.Timeout),
		newsapi.WithLocation(loc),
	)
	if cfg.News.CacheTTL <= 0 {
		return client
	}
	return news.NewCached(client, cfg.News.CacheTTL)
}

// buildBackend returns the persistence backend and an optional close func.
func buildBackend(ctx context.Context, sc config.StorageConfig) (scancache.Backend, func() error, error) {
	switch sc.Type {
	case "memory":
		return scancache.Memory{}, nil, nil
	case "localfs":
		fs, err := archive.NewLocalFS(sc.Path)
		if err != nil {
			return nil, nil, core.WrapError(core.ErrStorageFailed, err)
		}
		return scancache.NewBlob(fs, "localfs"), nil, nil
	case "s3":
		store, err := archive.NewS3(archive.S3Config{
			Bucket:    sc.S3.Bucket,
			Endpoint:  sc.S3.Endpoint,
			Region:    sc.S3.Region,
			AccessKey: sc.S3.AccessKey,
			SecretKey: sc.S3.SecretKey,
			Prefix:    sc.S3.Prefix,
		})
		if err != nil {
			return nil, nil, core.WrapError(core.ErrStorageFailed, err)
		}
		return scancache.NewBlob(store, "s3"), nil, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		})
		backend := scancache.NewRedis(rdb, sc.Redis.Namespace)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := backend.Ping(pingCtx); err != nil {
			rdb.Close()
			return nil, nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("connecting to redis at %s: %w", sc.Redis.Addr, err))
		}
		return backend, rdb.Close, nil
	default:
		return nil, nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown storage type %q", sc.Type))
	}
}

// buildNotifiers initialises every enabled notifier. A notifier that fails
// to initialise is a configuration error.
func buildNotifiers(cfgs []config.NotifierConfig, log *zap.Logger) (*notifier.Registry, error) {
	registry := notifier.NewRegistry()
	var errs []error
	for i, nc := range cfgs {
		if !nc.Enabled {
			continue
		}
		var n notifier.Notifier
		switch nc.Type {
		case "webhook":
			n = webhook.New("", nil)
		case "telegram":
			n = telegram.New("", "")
		default:
			errs = append(errs, fmt.Errorf("notifiers[%d]: unknown type %q", i, nc.Type))
			continue
		}
		if err := n.Init(notifier.Config{Type: nc.Type, Params: nc.Params}); err != nil {
			errs = append(errs, fmt.Errorf("notifiers[%d]: %w", i, err))
			continue
		}
		if err := registry.Register(n); err != nil {
			log.Warn("duplicate notifier ignored", zap.Int("index", i), zap.String("type", nc.Type))
			continue
		}
	}
	if len(errs) > 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, errors.Join(errs...))
	}
	return registry, nil
}

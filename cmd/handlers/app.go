package handlers

import (
	"currents/internal/config"
	"currents/internal/feeds"
	"currents/internal/logger"
	"currents/internal/persistence"
	"currents/internal/signal"
	"currents/internal/sources"
	"currents/internal/store"
	"currents/internal/trends"
	"fmt"
)

// app bundles the components a command needs, wired from config. Every
// command builds its own app and closes it when done; there are no
// process-wide service singletons.
type app struct {
	cfg      *config.Config
	db       persistence.Database
	cache    *store.Store
	detector *trends.Detector
	sources  *sources.Manager
	owner    string
}

// openApp loads config and connects the components. needOwner commands
// fail fast when no owner is configured.
func openApp(needOwner bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.Level)

	owner := ownerFlag
	if owner == "" {
		owner = cfg.App.DefaultOwner
	}
	if needOwner && owner == "" {
		return nil, fmt.Errorf("no owner given: pass --owner or set app.default_owner")
	}

	db, err := persistence.NewPostgresDB(cfg.Database.ConnectionString(), persistence.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: config.Duration(cfg.Database.ConnMaxLifetime),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cache, err := store.NewStore(cfg.App.DataDir, config.Duration(cfg.Signal.CacheTTL))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open signal cache: %w", err)
	}

	provider := signal.NewGoogleTrendsClient(cfg.Signal.Endpoint, config.Duration(cfg.Signal.Timeout))
	interest := signal.NewService(provider, cache, signal.Options{
		BatchSize:  cfg.Signal.BatchSize,
		BatchDelay: config.Duration(cfg.Signal.BatchDelay),
		Timeframe:  cfg.Signal.Timeframe,
	})

	detector := trends.NewDetector(db, interest, trends.Options{
		MaxTrends:    cfg.Trends.MaxTrends,
		MinMentions:  cfg.Trends.MinMentions,
		LookbackDays: cfg.Trends.LookbackDays,
		RecentDays:   cfg.Trends.RecentDays,
		ListingDays:  cfg.Trends.ListingDays,
		MaxLookups:   cfg.Signal.MaxLookups,
		Scorer: trends.Scorer{
			MentionWeight:    cfg.Trends.MentionWeight,
			SignalWeight:     cfg.Trends.SignalWeight,
			VelocityWeight:   cfg.Trends.VelocityWeight,
			MentionSaturate:  cfg.Trends.MentionSaturate,
			VelocitySaturate: cfg.Trends.VelocitySaturate,
		},
	})

	feedManager := feeds.NewManager(cfg.Feeds.UserAgent, config.Duration(cfg.Feeds.Timeout))
	sourceManager := sources.NewManager(db, feedManager, cfg.Feeds.MaxItemsPerFeed)

	return &app{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		detector: detector,
		sources:  sourceManager,
		owner:    owner,
	}, nil
}

// Close releases the app's connections.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

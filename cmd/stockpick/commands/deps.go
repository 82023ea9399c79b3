package commands

import (
	"fmt"

	"stockpick/internal/analysiscache"
	"stockpick/internal/backtest"
	"stockpick/internal/datasync"
	"stockpick/internal/fmp"
	"stockpick/internal/metrics"
	"stockpick/internal/selection"
	"stockpick/internal/store"
	"stockpick/pkg/config"
	"stockpick/pkg/database"
	"stockpick/pkg/logger"
	"stockpick/pkg/redis"
)

// app wires the full service graph once per command invocation.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client

	prices       *store.PriceRepository
	constituents *store.ConstituentRepository
	indexPrices  *store.IndexPriceRepository
	calendar     *store.Calendar
	snapshots    *store.MetricsRepository
	simulations  *store.SimulationRepository

	cache     *analysiscache.Cache
	metrics   *metrics.Service
	selector  *selection.Selector
	simulator *backtest.Simulator
	fmp       *fmp.Client
	syncer    *datasync.Syncer
}

// newApp loads config, connects to the stores, and builds the services.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		redis: redisClient,
	}

	a.prices = store.NewPriceRepository(db.Pool)
	a.constituents = store.NewConstituentRepository(db.Pool)
	a.indexPrices = store.NewIndexPriceRepository(db.Pool)
	a.calendar = store.NewCalendar(db.Pool)
	a.snapshots = store.NewMetricsRepository(db.Pool)
	a.simulations = store.NewSimulationRepository(db.Pool)

	remoteCache := redis.NewCache(redisClient, "stockpick")
	a.cache = analysiscache.New(analysiscache.DefaultMaxEntries, remoteCache, a.snapshots, log)
	a.metrics = metrics.NewService(a.prices, cfg.Simulation.LookbackWeeks, log)
	a.selector = selection.NewSelector(log)
	a.simulator = backtest.NewSimulator(
		a.prices, a.constituents, a.calendar, a.indexPrices,
		a.cache, a.metrics, a.selector, log,
	)

	a.fmp = fmp.NewClient(cfg.FMP, log)
	a.syncer = datasync.NewSyncer(a.fmp, a.prices, a.constituents, a.indexPrices, log)

	return a, nil
}

// Close releases connections.
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

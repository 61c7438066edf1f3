package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/marketdata"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/pipeline"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/predict"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/regime"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/scanner"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/scoring"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/sentiment"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/strategy"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/universe"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/internal/volatility"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/config"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/database"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/httputil"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/logger"
	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/pkg/redis"
)

// runLockTTL must outlive the longest plausible nightly run
const runLockTTL = 4 * time.Hour

// app holds the wired dependency graph shared by the commands
type app struct {
	cfg   *config.Config
	strat *strategy.Config
	log   *logger.Logger

	db    *database.DB
	redis *redis.Client
	store pipeline.RunStore

	orchestrator *pipeline.Orchestrator
}

// newBaseApp loads configuration and connects the storage layer.
// Configuration errors are fatal before any phase starts.
func newBaseApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.store = pipeline.NewRepository(db.Pool)
	} else {
		log.Warn("DATABASE_URL not set, run persistence disabled")
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = redisClient

	return a, nil
}

// newPipelineApp extends the base graph with the full screening
// pipeline: strategy config, universe, data gateway, every phase
// component and the orchestrator.
func newPipelineApp(eventsFile string) (*app, error) {
	a, err := newBaseApp()
	if err != nil {
		return nil, err
	}

	strat, err := strategy.Load(strategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategy.Warn(strat) {
		a.log.WithField("code", w.Code).Warn(w.Message)
	}
	a.strat = strat

	uni, err := universe.Load(strat.Universe.File)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	if uni.Count() == 0 {
		return nil, fmt.Errorf("universe %s is empty", strat.Universe.File)
	}

	var events *scoring.EventCalendar
	if eventsFile != "" {
		if _, err := os.Stat(eventsFile); err == nil {
			events, err = scoring.LoadEventCalendar(eventsFile)
			if err != nil {
				return nil, fmt.Errorf("load event calendar: %w", err)
			}
		} else {
			a.log.WithField("file", eventsFile).Debug("No event calendar, phase will be skipped")
		}
	}

	limiter := redis.NewRateLimiter(a.redis, "screener")
	cache := redis.NewCache(a.redis, "screener")

	marketClient := httputil.New(a.log, a.cfg.Yahoo.Timeout).
		WithRateLimiter(limiter, redis.YahooRateLimit).
		WithUserAgent("Mozilla/5.0 (compatible; overnight-screener)")
	gateway := marketdata.New(a.cfg, marketClient, cache, a.log)

	modelClient := httputil.New(a.log, strat.Ensemble.ModelTimeout()).
		WithRateLimiter(limiter, redis.ModelRateLimit)

	forecaster := volatility.NewForecaster(strat.Volatility, a.log)
	detector := regime.NewDetector(strat.Regime, a.log)

	a.orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Sentiment: sentiment.NewMonitor(gateway, strat, a.log),
		Regime:    regime.NewEngine(gateway, forecaster, detector, strat, a.log),
		Scanner:   scanner.NewScanner(gateway, strat, a.log),
		Predictor: predict.NewEnsemble(
			predict.BuildSources(modelClient, strat.Ensemble, a.log),
			strat.Ensemble.Weights,
			a.log,
		),
		Betas:    scoring.NewBetaCalculator(gateway, strat, a.log),
		Scorer:   scoring.NewScorer(strat.Scoring, a.log),
		Events:   events,
		Store:    a.store,
		Lock:     redis.NewRunLock(a.redis, "screener", runID(), runLockTTL),
		Universe: uni,
		Config:   strat,
	}, a.log)

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// runID tokenizes the lock holder so only the acquiring process can
// release it
func runID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "screener"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

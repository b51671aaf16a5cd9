package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"meal-recommender/internal/catalog"
	"meal-recommender/internal/config"
	"meal-recommender/internal/database"
	"meal-recommender/internal/eval"
	"meal-recommender/internal/extractor"
	"meal-recommender/internal/llm"
	"meal-recommender/internal/matcher"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/planner"
	"meal-recommender/internal/predictor"
	"meal-recommender/internal/ranker"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	db           *database.DB
	catalog      *catalog.Catalog
	matcher      *matcher.Matcher
	selector     *planner.Selector
	composer     *planner.Composer
	pipeline     *ranker.Pipeline
	metricsStore *metrics.Store
	closers      []llm.Closer
	logger       zerolog.Logger
}

// New builds the App from cfg. The caller owns db and closes it after App.Close.
func New(ctx context.Context, cfg *config.Config, db *database.DB, logger zerolog.Logger) (*App, error) {
	a := &App{
		cfg:          cfg,
		db:           db,
		matcher:      matcher.New(nil),
		metricsStore: metrics.NewStore(db.SQL),
		logger:       logger.With().Str("component", "app").Logger(),
	}

	c, err := a.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	a.catalog = c

	policy, err := planner.ParseBandPolicy(cfg.Planner.BandPolicy)
	if err != nil {
		return nil, err
	}
	a.selector = planner.NewSelector(policy)
	a.composer = planner.NewComposer(c, a.matcher, a.selector, planner.NewRandPicker(cfg.Planner.Seed), logger)

	pred, err := a.newPredictor(ctx, logger)
	if err != nil {
		return nil, err
	}

	ext, err := a.newExtractor(ctx, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	adapter, err := extractor.NewAdapter(ext, extractor.AdapterConfig{
		Timeout:   cfg.Extractor.Timeout,
		CacheSize: cfg.Extractor.CacheSize,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.pipeline = ranker.NewPipeline(c, pred, adapter, a.matcher, ranker.Config{
		ShortlistSize:  cfg.Ranker.ShortlistSize,
		Boosts:         cfg.Ranker.AllBoosts(),
		PredictTimeout: cfg.Ranker.PredictTimeout,
		Workers:        cfg.Ranker.Workers,
	}, logger)

	a.logger.Info().
		Int("catalog_items", c.Len()).
		Str("band_policy", string(policy)).
		Str("extractor", cfg.Extractor.Provider).
		Str("predictor", cfg.Predictor.Source).
		Msg("application ready")

	return a, nil
}

// Close releases LLM clients. It does not close the database.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	switch a.cfg.Catalog.Source {
	case "sqlite":
		c, err := catalog.NewRepository(a.db.SQL).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog from database: %w", err)
		}
		return c, nil
	default:
		return catalog.LoadFile(a.cfg.Catalog.Path, a.logger)
	}
}

func (a *App) newPredictor(ctx context.Context, logger zerolog.Logger) (predictor.Predictor, error) {
	pc := a.cfg.Predictor
	switch pc.Source {
	case "http":
		return predictor.NewHTTPPredictor(predictor.HTTPConfig{
			URL:              pc.URL,
			Timeout:          pc.Timeout,
			FailureThreshold: pc.FailureThreshold,
			OpenTimeout:      pc.OpenTimeout,
		}, logger), nil
	case "sqlite":
		t, err := predictor.NewRepository(a.db.SQL).LoadTable(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load predictions from database: %w", err)
		}
		return t, nil
	default:
		t, err := predictor.LoadTableFile(pc.Path)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

func (a *App) newExtractor(ctx context.Context, logger zerolog.Logger) (extractor.Extractor, error) {
	ec := a.cfg.Extractor
	if ec.Provider == "rule" {
		return extractor.NewRuleExtractor(), nil
	}

	gen, err := llm.NewTextGenerator(ctx, llm.ClientConfig{
		Provider: ec.Provider,
		APIKey:   ec.APIKey,
		BaseURL:  ec.BaseURL,
		Model:    ec.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", ec.Provider, err)
	}
	if c, ok := gen.(llm.Closer); ok {
		a.closers = append(a.closers, c)
	}

	var limiter *rate.Limiter
	if ec.RateLimit > 0 {
		burst := ec.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ec.RateLimit), burst)
	}
	return extractor.NewLLMExtractor(gen, limiter, a.metricsStore, logger), nil
}

// CatalogSize is the number of items being served.
func (a *App) CatalogSize() int {
	return a.catalog.Len()
}

// ComposePlan builds a one-day plan for the given tags and calorie budget.
func (a *App) ComposePlan(ctx context.Context, tags []string, totalCalories int) (*planner.MealPlan, error) {
	return a.composer.Compose(ctx, planner.PreferenceRequest{Tags: tags, TotalCalories: totalCalories})
}

// RankCandidates ranks catalog items for userID against a free-text query.
// topN <= 0 uses the configured default.
func (a *App) RankCandidates(ctx context.Context, userID, query string, topN int) ([]ranker.RankedItem, error) {
	if topN <= 0 {
		topN = a.cfg.Ranker.TopN
	}
	return a.pipeline.Rank(ctx, userID, query, topN)
}

// Evaluate scores the reference cases against their labelled catalog using
// the configured band policy and a fixed picker seed.
func (a *App) Evaluate(ctx context.Context, k int) (*eval.Report, error) {
	c, err := catalog.New(eval.GroundTruthItems())
	if err != nil {
		return nil, err
	}
	comp := planner.NewComposer(c, a.matcher, a.selector, planner.NewRandPicker(1), a.logger)
	return eval.Run(ctx, comp, eval.DefaultCases(), k)
}

// UsageReport is the admin view of LLM usage and process health.
type UsageReport struct {
	Daily  []metrics.DailyUsage
	Health metrics.SysHealth
}

// Usage returns token usage for the last days and current process health.
func (a *App) Usage(ctx context.Context, days int) (*UsageReport, error) {
	daily, err := a.metricsStore.GetDailyUsage(ctx, days)
	if err != nil {
		return nil, err
	}
	return &UsageReport{
		Daily:  daily,
		Health: metrics.GetSysHealth(filepath.Dir(a.cfg.Database.Path), a.catalog.Len()),
	}, nil
}

// Package ranker ranks catalog items for a user against a free-text query.
//
// Every item is scored by the relevance predictor, curated items get a fixed
// boost, the best ShortlistSize survive, and those are filtered by the calorie
// ceiling and keywords extracted from the query.
package ranker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"meal-recommender/internal/catalog"
	"meal-recommender/internal/extractor"
	"meal-recommender/internal/matcher"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/predictor"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidTopN is returned when the requested result count is not positive.
var ErrInvalidTopN = errors.New("top_n must be positive")

const (
	DefaultShortlistSize = 50
	DefaultBoost         = 2.0
	defaultWorkers       = 8
)

// FilterSource turns a query into a filter. It must not fail; extractor.Adapter implements it.
type FilterSource interface {
	Extract(ctx context.Context, query string) extractor.StructuredFilter
}

// Config tunes a Pipeline. Zero values take defaults.
type Config struct {
	ShortlistSize  int
	Boosts         map[string]float64
	PredictTimeout time.Duration
	Workers        int
}

// BoostsFromIDs gives every id the same boost.
func BoostsFromIDs(ids []string, boost float64) map[string]float64 {
	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = boost
	}
	return out
}

// RankedItem is one ranking result.
type RankedItem struct {
	ItemID        string  `json:"item_id"`
	Name          string  `json:"name"`
	BaseScore     float64 `json:"base_score"`
	Score         float64 `json:"score"`
	Calories      int     `json:"calories"`
	CaloriesKnown bool    `json:"calories_known"`
}

type scoredCandidate struct {
	item      catalog.Item
	baseScore float64
	score     float64
}

// Pipeline ranks candidates. It is safe for concurrent use.
type Pipeline struct {
	catalog   *catalog.Catalog
	predictor predictor.Predictor
	filters   FilterSource
	matcher   *matcher.Matcher
	cfg       Config
	logger    zerolog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(c *catalog.Catalog, p predictor.Predictor, f FilterSource, m *matcher.Matcher, cfg Config, logger zerolog.Logger) *Pipeline {
	if cfg.ShortlistSize <= 0 {
		cfg.ShortlistSize = DefaultShortlistSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	boosts := make(map[string]float64, len(cfg.Boosts))
	for id, b := range cfg.Boosts {
		boosts[id] = b
	}
	cfg.Boosts = boosts

	return &Pipeline{
		catalog:   c,
		predictor: p,
		filters:   f,
		matcher:   m,
		cfg:       cfg,
		logger:    logger.With().Str("component", "ranker").Logger(),
	}
}

// Rank returns up to topN items for userID matching query, best first.
// Fewer than topN results is not an error.
func (p *Pipeline) Rank(ctx context.Context, userID, query string, topN int) ([]RankedItem, error) {
	if topN <= 0 {
		return nil, ErrInvalidTopN
	}

	start := time.Now()
	log := p.logger.With().Str("request_id", uuid.NewString()).Str("user_id", userID).Logger()

	scored, failed, err := p.scoreAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(scored) > p.cfg.ShortlistSize {
		scored = scored[:p.cfg.ShortlistSize]
	}

	filter := p.filters.Extract(ctx, query)
	terms := nameTerms(filter)

	results := make([]RankedItem, 0, topN)
	for _, c := range scored {
		if len(results) >= topN {
			break
		}
		if !withinCeiling(c.item, filter.MaxCalories) {
			continue
		}
		if !p.matcher.MatchText(c.item.Name, terms) {
			continue
		}
		cal, known := c.item.KnownCalories()
		results = append(results, RankedItem{
			ItemID:        c.item.ID,
			Name:          c.item.Name,
			BaseScore:     c.baseScore,
			Score:         c.score,
			Calories:      cal,
			CaloriesKnown: known,
		})
	}

	metrics.RankDuration.Observe(time.Since(start).Seconds())
	metrics.RankResults.Observe(float64(len(results)))
	log.Info().
		Str("query", query).
		Bool("filtered", !filter.IsEmpty()).
		Int("scored", len(scored)).
		Int("predict_failures", failed).
		Int("results", len(results)).
		Dur("duration", time.Since(start)).
		Msg("candidates ranked")

	return results, nil
}

// nameTerms is what a candidate name must match. Keywords win; diet is used
// only when the query gave no keywords.
func nameTerms(f extractor.StructuredFilter) []string {
	if len(f.Keywords) > 0 || f.Diet == "" {
		return f.Keywords
	}
	return []string{f.Diet}
}

// withinCeiling rejects only items whose known calories exceed ceiling.
func withinCeiling(it catalog.Item, ceiling *float64) bool {
	if ceiling == nil {
		return true
	}
	cal, known := it.KnownCalories()
	return !known || float64(cal) <= *ceiling
}

// scoreAll predicts every catalog item in parallel and returns the scored
// candidates sorted by final score, ties in catalog order. Items whose
// prediction fails are left out and counted.
func (p *Pipeline) scoreAll(ctx context.Context, userID string) ([]scoredCandidate, int, error) {
	items := p.catalog.Items()
	slots := make([]*scoredCandidate, len(items))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, it := range items {
		g.Go(func() error {
			score, err := p.predict(gctx, userID, it.ID)
			if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
				err = fmt.Errorf("non-finite score %v", score)
			}
			if err != nil {
				failed.Add(1)
				metrics.PredictorFailures.Inc()
				if !errors.Is(err, predictor.ErrNoPrediction) {
					p.logger.Warn().Err(err).Str("item_id", it.ID).Msg("prediction failed, item excluded")
				}
				return nil
			}
			slots[i] = &scoredCandidate{item: it, baseScore: score, score: score + p.cfg.Boosts[it.ID]}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to score candidates: %w", err)
	}

	scored := make([]scoredCandidate, 0, len(items))
	for _, c := range slots {
		if c != nil {
			scored = append(scored, *c)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored, int(failed.Load()), nil
}

func (p *Pipeline) predict(ctx context.Context, userID, itemID string) (float64, error) {
	if p.cfg.PredictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PredictTimeout)
		defer cancel()
	}
	return p.predictor.Predict(ctx, userID, itemID)
}

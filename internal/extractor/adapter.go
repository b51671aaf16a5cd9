package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meal-recommender/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Timeout bounds each extractor call. Zero means no bound.
	Timeout time.Duration
	// CacheSize is the number of normalized filters kept. Zero disables caching.
	CacheSize int
}

// Adapter wraps an Extractor so that callers always get a usable filter.
type Adapter struct {
	ext     Extractor
	timeout time.Duration
	cache   *lru.Cache[string, StructuredFilter]
	logger  zerolog.Logger
}

// NewAdapter creates an Adapter around ext.
func NewAdapter(ext Extractor, cfg AdapterConfig, logger zerolog.Logger) (*Adapter, error) {
	a := &Adapter{
		ext:     ext,
		timeout: cfg.Timeout,
		logger:  logger.With().Str("component", "extractor").Logger(),
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, StructuredFilter](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create filter cache: %w", err)
		}
		a.cache = cache
	}
	return a, nil
}

// Extract returns the filter for query. Blank queries, extractor errors, panics
// and timeouts all yield the empty filter. Failures are not cached.
func (a *Adapter) Extract(ctx context.Context, query string) StructuredFilter {
	query = strings.TrimSpace(query)
	if query == "" {
		return StructuredFilter{}
	}

	key := strings.ToLower(query)
	if a.cache != nil {
		if f, ok := a.cache.Get(key); ok {
			metrics.ExtractorCacheHits.Inc()
			return f.clone()
		}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.safeExtract(ctx, query)
	if err != nil {
		metrics.ExtractorFailures.Inc()
		a.logger.Warn().Err(err).Str("query", query).Msg("filter extraction failed, using empty filter")
		return StructuredFilter{}
	}

	f := Normalize(raw)
	if a.cache != nil {
		a.cache.Add(key, f.clone())
	}
	a.logger.Debug().Str("query", query).Interface("filter", f).Msg("filter extracted")
	return f
}

type extractResult struct {
	raw RawFilter
	err error
}

// safeExtract runs the extractor, turning a panic or a missed deadline into an error.
// An extractor that ignores ctx is abandoned rather than waited for.
func (a *Adapter) safeExtract(ctx context.Context, query string) (RawFilter, error) {
	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- extractResult{err: fmt.Errorf("extractor panicked: %v", r)}
			}
		}()
		raw, err := a.ext.Extract(ctx, query)
		done <- extractResult{raw: raw, err: err}
	}()

	select {
	case r := <-done:
		return r.raw, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

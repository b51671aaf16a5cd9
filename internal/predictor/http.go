package predictor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"meal-recommender/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// HTTPConfig configures an HTTPPredictor.
type HTTPConfig struct {
	URL              string
	Timeout          time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
	MaxHalfOpen      uint32
}

type predictRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

type predictResponse struct {
	Score *float64 `json:"score"`
}

// HTTPPredictor asks a model server for scores. Calls go through a circuit
// breaker; while it is open every call fails fast.
type HTTPPredictor struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[float64]
	logger  zerolog.Logger
}

// NewHTTPPredictor creates an HTTPPredictor.
func NewHTTPPredictor(cfg HTTPConfig, logger zerolog.Logger) *HTTPPredictor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.MaxHalfOpen == 0 {
		cfg.MaxHalfOpen = 1
	}

	p := &HTTPPredictor{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "predictor").Logger(),
	}
	p.breaker = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "predictor",
		MaxRequests: cfg.MaxHalfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A missing pair is an answer, not a server failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoPrediction)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			p.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return p
}

// Predict implements Predictor.
func (p *HTTPPredictor) Predict(ctx context.Context, userID, itemID string) (float64, error) {
	return p.breaker.Execute(func() (float64, error) {
		return p.call(ctx, userID, itemID)
	})
}

// State returns the breaker state.
func (p *HTTPPredictor) State() gobreaker.State {
	return p.breaker.State()
}

func (p *HTTPPredictor) call(ctx context.Context, userID, itemID string) (float64, error) {
	body, err := json.Marshal(predictRequest{UserID: userID, ItemID: itemID})
	if err != nil {
		return 0, fmt.Errorf("failed to encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrNoPrediction
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("predictor returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if out.Score == nil {
		return 0, ErrNoPrediction
	}
	return *out.Score, nil
}

// Package predictor provides relevance scores for (user, item) pairs.
//
// Scores come from a model trained elsewhere; this package only serves them,
// either from a precomputed table or from a remote model server.
package predictor

import (
	"context"
	"errors"
)

// ErrNoPrediction is returned when no score exists for a pair.
var ErrNoPrediction = errors.New("no prediction available")

// Predictor returns a relevance estimate of itemID for userID. Higher is better.
type Predictor interface {
	Predict(ctx context.Context, userID, itemID string) (float64, error)
}

// Score is a single precomputed prediction.
type Score struct {
	UserID string
	ItemID string
	Score  float64
}

package eval

import (
	"context"
	"errors"
	"testing"

	"meal-recommender/internal/catalog"
	"meal-recommender/internal/matcher"
	"meal-recommender/internal/planner"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecisionAtK(t *testing.T) {
	tests := []struct {
		name        string
		recommended []string
		relevant    []string
		k           int
		want        float64
	}{
		{"EmptyRecommendations", nil, []string{"a"}, 5, 0},
		{"EmptyRelevant", []string{"a", "b"}, nil, 5, 0},
		{"ZeroK", []string{"a"}, []string{"a"}, 0, 0},
		{"ShortListShrinksK", []string{"a", "b"}, []string{"a", "c"}, 5, 0.5},
		{"CutAtK", []string{"a", "x", "b", "c"}, []string{"a", "b", "c"}, 2, 0.5},
		{"AllRelevant", []string{"a", "b", "c"}, []string{"c", "b", "a"}, 5, 1},
		{"DuplicatesCountOnce", []string{"a", "a"}, []string{"a"}, 2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PrecisionAtK(tt.recommended, tt.relevant, tt.k), 1e-9)
		})
	}
}

func TestPrecisionAtKIgnoresRelevantOrder(t *testing.T) {
	rec := []string{"1", "2", "3", "4"}
	a := PrecisionAtK(rec, []string{"4", "1", "9"}, 3)
	b := PrecisionAtK(rec, []string{"9", "4", "1"}, 3)
	assert.Equal(t, a, b)
}

func TestRunDefaultCases(t *testing.T) {
	c, err := catalog.New(GroundTruthItems())
	require.NoError(t, err)
	comp := planner.NewComposer(c, matcher.New(nil), planner.NewSelector(planner.BandStrict), planner.NewRandPicker(1), zerolog.Nop())

	report, err := Run(context.Background(), comp, DefaultCases(), DefaultK)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, []string{"987654", "319874", "1234567"}, report.Results[0].Recommended)
	assert.Equal(t, 1.0, report.Results[0].Precision)
	assert.Equal(t, []string{"223344", "556677", "889900"}, report.Results[2].Recommended)
	assert.Equal(t, 1.0, report.Results[2].Precision)
	assert.Equal(t, 1.0, report.Average)
}

type failingComposer struct{}

func (failingComposer) Compose(context.Context, planner.PreferenceRequest) (*planner.MealPlan, error) {
	return nil, errors.New("catalog unavailable")
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), failingComposer{}, DefaultCases(), DefaultK)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vegan_1800")

	report, err := Run(context.Background(), failingComposer{}, nil, DefaultK)
	require.NoError(t, err)
	assert.Zero(t, report.Average)
}

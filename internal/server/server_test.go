package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"meal-recommender/internal/planner"
	"meal-recommender/internal/ranker"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	tags     []string
	calories int
	topN     int
	err      error
}

func (f *fakeService) ComposePlan(_ context.Context, tags []string, total int) (*planner.MealPlan, error) {
	f.tags, f.calories = tags, total
	if f.err != nil {
		return nil, f.err
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: total_calories", planner.ErrInvalidRequest)
	}
	return &planner.MealPlan{TotalCalories: total, SelectedIDs: []string{"987654"}}, nil
}

func (f *fakeService) RankCandidates(_ context.Context, _, _ string, topN int) ([]ranker.RankedItem, error) {
	f.topN = topN
	if f.err != nil {
		return nil, f.err
	}
	return []ranker.RankedItem{{ItemID: "112233", Score: 4.5}}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestPlanEndpoint(t *testing.T) {
	t.Run("DefaultsCalories", func(t *testing.T) {
		svc := &fakeService{}
		rec := do(t, NewRouter(svc, nil, zerolog.Nop()), http.MethodPost, "/api/v1/plan", `{"preferences": ["vegan"]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, DefaultCalories, svc.calories)
		assert.Equal(t, []string{"vegan"}, svc.tags)

		var plan planner.MealPlan
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
		assert.Equal(t, []string{"987654"}, plan.SelectedIDs)
	})

	t.Run("InvalidCalories", func(t *testing.T) {
		rec := do(t, NewRouter(&fakeService{}, nil, zerolog.Nop()), http.MethodPost, "/api/v1/plan", `{"calories": 0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadJSON", func(t *testing.T) {
		rec := do(t, NewRouter(&fakeService{}, nil, zerolog.Nop()), http.MethodPost, "/api/v1/plan", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ServiceFailure", func(t *testing.T) {
		rec := do(t, NewRouter(&fakeService{err: errors.New("db down")}, nil, zerolog.Nop()), http.MethodPost, "/api/v1/plan", `{}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestRankEndpoint(t *testing.T) {
	svc := &fakeService{}
	h := NewRouter(svc, nil, zerolog.Nop())

	rec := do(t, h, http.MethodPost, "/api/v1/rank", `{"user_id": "42", "query": "chicken", "top_n": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.topN)
	assert.Contains(t, rec.Body.String(), `"item_id":"112233"`)

	rec = do(t, h, http.MethodPost, "/api/v1/rank", `{"query": "chicken"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthMetricsAndWebhook(t *testing.T) {
	called := false
	h := NewRouter(&fakeService{}, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}, zerolog.Nop())

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	do(t, h, http.MethodPost, "/webhook", "{}")
	assert.True(t, called)

	rec = do(t, NewRouter(&fakeService{}, nil, zerolog.Nop()), http.MethodPost, "/webhook", "{}")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

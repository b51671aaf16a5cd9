package predictor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"meal-recommender/internal/database"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoresCSV = `user_id,food_id,rating
1,319874,4.5
1,112233,3.0
2,319874,1.25
`

func TestLoadCSV(t *testing.T) {
	scores, err := LoadCSV(strings.NewReader(scoresCSV))
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, Score{UserID: "2", ItemID: "319874", Score: 1.25}, scores[2])

	t.Run("MissingScoreColumn", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("user_id,food_id\n1,2\n"))
		assert.Error(t, err)
	})

	t.Run("BadScore", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("user_id,item_id,score\n1,2,high\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	require.NoError(t, os.WriteFile(path, []byte(scoresCSV), 0644))

	table, err := LoadTableFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.True(t, table.HasUser("1"))
	assert.False(t, table.HasUser("3"))

	score, err := table.Predict(context.Background(), "1", "319874")
	require.NoError(t, err)
	assert.Equal(t, 4.5, score)

	_, err = table.Predict(context.Background(), "2", "112233")
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "predictions.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	scores, err := LoadCSV(strings.NewReader(scoresCSV))
	require.NoError(t, err)

	repo := NewRepository(db.SQL)
	require.NoError(t, repo.SaveAll(ctx, scores))
	require.NoError(t, repo.SaveAll(ctx, scores))

	table, err := repo.LoadTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	score, err := table.Predict(ctx, "1", "112233")
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)
}

func TestHTTPPredictor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch req.ItemID {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"score": 3.75}`))
		}
	}))
	defer srv.Close()

	p := NewHTTPPredictor(HTTPConfig{URL: srv.URL}, zerolog.Nop())
	ctx := context.Background()

	score, err := p.Predict(ctx, "1", "319874")
	require.NoError(t, err)
	assert.Equal(t, 3.75, score)

	_, err = p.Predict(ctx, "1", "missing")
	assert.ErrorIs(t, err, ErrNoPrediction)

	_, err = p.Predict(ctx, "1", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestHTTPPredictorBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPPredictor(HTTPConfig{URL: srv.URL, FailureThreshold: 2}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Predict(ctx, "1", "x")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	_, err := p.Predict(ctx, "1", "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filterCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"max_calories\": null, \"meal_type\": \"lunch\", \"diet\": null, \"keywords\": [\"chicken\"]}"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

// TestLLMFilterCaching checks that repeated queries reach the model once and
// that its token usage lands in the metrics store.
func TestLLMFilterCaching(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(filterCompletion))
	}))
	defer srv.Close()

	f := newFixture(t)
	f.cfg.Extractor.Provider = "openai"
	f.cfg.Extractor.APIKey = "test"
	f.cfg.Extractor.BaseURL = srv.URL + "/v1/"

	a, err := New(context.Background(), f.cfg, f.db, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	first, err := a.RankCandidates(ctx, "1", "lunch with chicken", 5)
	require.NoError(t, err)
	second, err := a.RankCandidates(ctx, "1", "  Lunch with CHICKEN ", 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"112233"}, rankedIDs(first))
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	report, err := a.Usage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, report.Daily, 1)
	assert.Equal(t, 12, report.Daily[0].TotalPrompt)
	assert.Equal(t, 5, report.Daily[0].TotalCompletion)
	assert.Equal(t, 1, report.Daily[0].TotalExecution)
}

package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatCompletion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"keywords\":[\"chicken\"]}"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func TestOpenAIClient(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion))
	}))
	defer srv.Close()

	gen := NewOpenAIClient(ClientConfig{Provider: ProviderOpenAI, APIKey: "test", BaseURL: srv.URL + "/v1/"})
	resp, err := gen.GenerateContent(context.Background(), "chicken for lunch")
	require.NoError(t, err)

	assert.Equal(t, `{"keywords":["chicken"]}`, resp.Content)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 5, resp.Usage.CompletionTokens)
	assert.Equal(t, 17, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", resp.Usage.Model)

	assert.Contains(t, gotBody, `"json_object"`)
	assert.Contains(t, gotBody, "chicken for lunch")
}

func TestNewTextGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		_, err := NewTextGenerator(ctx, ClientConfig{Provider: ProviderOpenAI})
		assert.Error(t, err)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		_, err := NewTextGenerator(ctx, ClientConfig{Provider: "llamafile", APIKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llamafile")
	})

	t.Run("Groq", func(t *testing.T) {
		gen, err := NewTextGenerator(ctx, ClientConfig{Provider: ProviderGroq, APIKey: "k"})
		require.NoError(t, err)
		c, ok := gen.(*openAIClient)
		require.True(t, ok)
		assert.Equal(t, groqModel, c.model)
	})
}

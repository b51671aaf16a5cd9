package extractor

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"meal-recommender/internal/llm"
	"meal-recommender/internal/shared"

	"github.com/goccy/go-json"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const agentName = "filter_extractor"

//go:embed prompts/filter_prompt.md
var filterPrompt string

var filterTemplate = template.Must(template.New("filter").Parse(filterPrompt))

type filterPromptData struct {
	Query string
}

// MetaRecorder stores token usage of LLM calls.
type MetaRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// LLMExtractor asks a language model to extract the filter.
type LLMExtractor struct {
	gen      llm.TextGenerator
	limiter  *rate.Limiter
	recorder MetaRecorder
	logger   zerolog.Logger
}

// NewLLMExtractor creates an LLMExtractor. limiter and recorder may be nil.
func NewLLMExtractor(gen llm.TextGenerator, limiter *rate.Limiter, recorder MetaRecorder, logger zerolog.Logger) *LLMExtractor {
	return &LLMExtractor{
		gen:      gen,
		limiter:  limiter,
		recorder: recorder,
		logger:   logger.With().Str("component", agentName).Logger(),
	}
}

// Extract implements Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (RawFilter, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := filterTemplate.Execute(&buf, filterPromptData{Query: query}); err != nil {
		return nil, fmt.Errorf("failed to render filter prompt: %w", err)
	}

	start := time.Now()
	resp, err := e.gen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to extract filter from LLM: %w", err)
	}

	meta := shared.AgentMeta{AgentName: agentName, Usage: resp.Usage, Latency: time.Since(start)}
	if e.recorder != nil {
		if err := e.recorder.RecordMeta(context.WithoutCancel(ctx), meta); err != nil {
			e.logger.Warn().Err(err).Msg("failed to record token usage")
		}
	}
	e.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Int("total_tokens", resp.Usage.Total()).
		Dur("latency", meta.Latency).
		Msg("filter extracted")

	return decodeFilter(resp.Content)
}

// decodeFilter parses the model reply, repairing malformed JSON once.
func decodeFilter(content string) (RawFilter, error) {
	content = stripCodeFence(content)

	var raw RawFilter
	if err := json.Unmarshal([]byte(content), &raw); err == nil {
		return raw, nil
	}

	fixed, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return nil, fmt.Errorf("failed to repair filter JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse filter JSON: %w. Response: %s", err, content)
	}
	return raw, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

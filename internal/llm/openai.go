package llm

import (
	"context"
	"fmt"

	"meal-recommender/internal/shared"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	openAIModel = "gpt-4o-mini"
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.3-70b-versatile"
)

// openAIClient talks to any OpenAI-compatible chat completions API, Groq included.
type openAIClient struct {
	client      *openai.Client
	model       string
	temperature float64
}

// NewOpenAIClient creates a client for the OpenAI API, or for Groq when
// cfg.Provider is ProviderGroq. Replies are requested as JSON objects.
func NewOpenAIClient(cfg ClientConfig) TextGenerator {
	model, baseURL := cfg.Model, cfg.BaseURL
	if cfg.Provider == ProviderGroq {
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		if model == "" {
			model = groqModel
		}
	}
	if model == "" {
		model = openAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &openAIClient{client: &client, model: model, temperature: cfg.Temperature}
}

// GenerateContent sends a prompt to the model and returns the generated text.
func (c *openAIClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ContentResponse{}, fmt.Errorf("no content generated")
	}

	return ContentResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			Model:            resp.Model,
		},
	}, nil
}

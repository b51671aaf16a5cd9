// Package shared holds types passed between the LLM clients, the extractors
// that call them and the usage ledger.
package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by one model call.
type TokenUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// Total is TotalTokens when the provider reports it, else prompt plus completion.
func (u TokenUsage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// AgentMeta describes one model call made on behalf of a named agent,
// such as the filter extractor.
type AgentMeta struct {
	AgentName string        `json:"agent_name"`
	Usage     TokenUsage    `json:"usage"`
	Latency   time.Duration `json:"latency"`
}

// Empty reports whether the call consumed no tokens, as with a cached reply.
func (m AgentMeta) Empty() bool {
	return m.Usage.Total() == 0
}

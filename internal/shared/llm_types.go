package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by one model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Empty reports whether the call consumed no tokens, as with a failed request.
func (u TokenUsage) Empty() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// AgentMeta describes one AI execution, such as a recipe extraction, for metrics.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

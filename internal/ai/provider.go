package ai

import "context"

// Roles understood by chat-completions providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the sampling knobs forwarded with every completion call.
// A zero MaxTokens leaves the limit to the provider.
type Options struct {
	Temperature float64
	MaxTokens   int
}

type Provider interface {
	Chat(ctx context.Context, model string, messages []Message, opts Options) (string, error)
}

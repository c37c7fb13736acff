package domain

import "context"

// Message roles understood by chat completion providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat completion request.
type Message struct {
	Role    string
	Content string
}

// Completion is the text a language model produced plus token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Completer is the language model contract.
// Non-2xx responses fail with *ProviderError wrapping ErrProviderError.
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float32) (Completion, error)
}

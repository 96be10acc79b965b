package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatRequest is a single chat completion call.
type ChatRequest struct {
	Model    string
	Messages []Message
	// MaxCompletionTokens caps the reply length. Zero leaves it to the provider.
	MaxCompletionTokens int
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for LLM chat.
type AIServiceAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// CountTokens must return prompt tokens for the provided messages
	// (best-effort when the provider has no exact counter).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// Chat returns the assistant text and usage as reported by the provider.
	// It never retries.
	Chat(ctx context.Context, req ChatRequest) (string, Usage, error)
}

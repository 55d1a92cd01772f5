package driven

import "context"

// ChatModel produces a grounded answer from a single generation request.
// One call per question; there is no multi-step agentic loop.
//
// Failure classes are surfaced through the domain sentinels
// (ErrQuotaExhausted, ErrPermissionDenied, ErrModelUnavailable) so the
// conversation engine can tell a quota problem apart from a missing
// answer.
//
// Implementations may include:
//   - Google Gemini (the hosted default)
//   - Ollama (local models, offline use)
type ChatModel interface {
	// Chat sends the assembled request (system instruction, prior
	// turns, grounding context, new question) and returns the answer
	// text.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the generative model being used.
	ModelName() string

	// Ping validates the service is reachable and the key is accepted.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour.
type ChatOptions struct {
	// MaxTokens caps the answer length.
	MaxTokens int

	// Temperature controls randomness (low values for factual answers).
	Temperature float64
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

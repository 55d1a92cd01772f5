package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleHuman marks a user question.
	RoleHuman Role = "human"

	// RoleAI marks an assistant answer.
	RoleAI Role = "ai"
)

// Turn is one message of the conversation. The turn sequence is
// append-only and ordered; it is the whole conversation state that gets
// passed into every generation call.
type Turn struct {
	Role    Role
	Content string
}

// History is the ordered, session-scoped turn sequence.
type History []Turn

// Append returns the history extended with one turn. The receiver is
// not mutated so callers can keep the pre-answer state on failure.
func (h History) Append(role Role, content string) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, Turn{Role: role, Content: content})
}

// Exchanges counts completed question/answer pairs.
func (h History) Exchanges() int {
	return len(h) / 2
}

// Session is the explicit conversation context passed by reference into
// every core call. One session per user conversation; sessions never
// share mutable state.
type Session struct {
	// History is the append-only turn sequence. Cleared only by an
	// explicit user reset.
	History History
}

// NewSession returns a session with documented defaults: empty history.
func NewSession() *Session {
	return &Session{}
}

// Reset clears the conversation history.
func (s *Session) Reset() {
	s.History = nil
}

// Answer is the outcome of one question: the generated text plus the
// provenance summary of the fragments that grounded it.
type Answer struct {
	// Text is the answer shown to the user.
	Text string

	// Sources summarises where the grounding fragments came from.
	Sources AttributionView
}

package driving

import (
	"context"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

// ChatService answers scholarship questions grounded in the knowledge
// base, one synchronous call per question.
type ChatService interface {
	// Ask retrieves grounding fragments for the question, generates an
	// answer in the context of the session history, and appends the
	// question and answer to the history in that order.
	//
	// Model failures (quota, permission, availability) come back as a
	// user-facing Answer with the session history untouched, so the
	// user can retry; only programming errors propagate as Go errors.
	Ask(ctx context.Context, session *domain.Session, question string) (domain.Answer, error)

	// Reset clears the session history.
	Reset(session *domain.Session)
}

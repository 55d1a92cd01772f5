package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDocuments indicates ingestion produced no documents at all,
	// so no usable index can be built. Callers show a waiting state
	// instead of crashing.
	ErrNoDocuments = errors.New("no documents to index")

	// ErrIndexAbsent indicates the persisted vector index is missing,
	// unreadable, or was built with a different embedding model.
	// The caller falls back to a full rebuild.
	ErrIndexAbsent = errors.New("vector index absent")

	// Generative model failure classes surfaced to the conversation
	// engine. Each maps to a distinct user-facing message; none of them
	// terminates the session.

	// ErrQuotaExhausted indicates the model provider rejected the call
	// because the usage quota ran out.
	ErrQuotaExhausted = errors.New("model quota exhausted")

	// ErrPermissionDenied indicates the API key is missing, invalid, or
	// not allowed to use the requested model.
	ErrPermissionDenied = errors.New("model permission denied")

	// ErrModelUnavailable indicates the generative or embedding backend
	// cannot be reached right now.
	ErrModelUnavailable = errors.New("model unavailable")
)

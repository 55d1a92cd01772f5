package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Vectors returned by implementations are L2-normalised so that cosine
// similarity reduces to a dot product in the index.
//
// The model is pinned together with the index it built: querying an
// index with a different embedding model is a correctness bug, so the
// index records ModelName and Dimensions at build time.
//
// Implementations may include:
//   - Ollama (local CPU models such as nomic-embed-text)
//   - OpenAI-compatible APIs (text-embedding-3-small, ...)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the backend is reachable. Called once at startup;
	// a failure here is terminal (no per-call embedding failures are
	// assumed afterwards).
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

package driven

import (
	"context"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

// IndexManifest describes what an index was built from. It is persisted
// with the index and checked on load: any mismatch means the persisted
// copy is stale and must be rebuilt from scratch.
type IndexManifest struct {
	// Fingerprint summarises the source set (PDF names/sizes/mtimes and
	// the corpus file checksum).
	Fingerprint string

	// EmbeddingModel is the model the fragment vectors came from.
	EmbeddingModel string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// VectorIndex is a queryable handle over one persisted (fragment,
// vector) collection. Read-only: the only write path is a full rebuild
// through IndexStore.Build.
type VectorIndex interface {
	// Search returns up to k nearest fragments by cosine similarity,
	// most similar first. Ties break by insertion order.
	Search(ctx context.Context, query []float32, k int) (domain.RetrievalResult, error)

	// Manifest returns the build metadata persisted with the index.
	Manifest() IndexManifest

	// Len returns the number of indexed fragments.
	Len() int

	// Close releases the underlying storage handle.
	Close() error
}

// IndexStore builds and loads the durable vector index at a well-known
// location. The on-disk layout is adapter-specific and opaque to the
// core.
type IndexStore interface {
	// Build embeds nothing itself: it persists the given fragments and
	// their precomputed vectors, replacing any previous index
	// atomically, and returns a fresh handle. An empty fragment list
	// fails with domain.ErrNoDocuments and leaves prior state intact.
	Build(ctx context.Context, fragments []domain.Fragment, vectors [][]float32, manifest IndexManifest) (VectorIndex, error)

	// Load opens the previously persisted index. A missing, corrupt, or
	// manifest-mismatched copy fails with domain.ErrIndexAbsent; any
	// such failure is a signal to rebuild, never a hard error.
	Load(ctx context.Context, want IndexManifest) (VectorIndex, error)
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// DefaultTopK is how many fragments ground one answer.
const DefaultTopK = 15

// indexProvider hands out the current vector index. Implemented by
// IngestService so retrieval always sees a source-current index.
type indexProvider interface {
	Index(ctx context.Context) (driven.VectorIndex, error)
}

// Retriever embeds a question and returns the most similar fragments.
// The query is embedded with the same provider the index was built with;
// the manifest check on load guarantees the pairing.
type Retriever struct {
	embedder driven.EmbeddingService
	indexes  indexProvider
	topK     int
}

// NewRetriever creates a new retriever. topK <= 0 uses DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, indexes indexProvider, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		indexes:  indexes,
		topK:     topK,
	}
}

// Retrieve returns the top fragments for the question, most similar
// first.
func (r *Retriever) Retrieve(ctx context.Context, question string) (domain.RetrievalResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	idx, err := r.indexes.Index(ctx)
	if err != nil {
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	result, err := idx.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	logger.Debug("Retrieved %d fragments for %q", len(result), question)
	return result, nil
}

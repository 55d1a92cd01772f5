package driven

import (
	"context"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

// PostProcessor processes document content to produce fragments.
// PostProcessors are chained in a pipeline (currently just the chunker).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns fragments. A processor that
	// creates fragments receives nil and returns new ones; a processor
	// that modifies fragments receives and returns them.
	Process(ctx context.Context, doc *domain.Document, fragments []domain.Fragment) ([]domain.Fragment, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order and
	// returns the final fragments.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Fragment, error)
}

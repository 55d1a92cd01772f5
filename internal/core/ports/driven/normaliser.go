package driven

import (
	"context"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

// PDFNormaliser extracts page-segmented text from PDF files.
// One Document per non-empty page.
type PDFNormaliser interface {
	// NormalisePDFs converts each readable file into page documents.
	// A missing or corrupt file is logged and skipped; a single bad PDF
	// never aborts the batch.
	NormalisePDFs(ctx context.Context, paths []string) ([]domain.Document, error)
}

// CorpusNormaliser converts the scraped corpus file into documents.
type CorpusNormaliser interface {
	// NormaliseCorpus parses the JSON corpus at path into one Document
	// per scholarship record. A missing file or malformed JSON is
	// reported and yields an empty list; ingestion continues with
	// whatever PDFs exist.
	NormaliseCorpus(ctx context.Context, path string) ([]domain.Document, error)
}

package driving

import "context"

// IngestStats reports the outcome of one index build.
type IngestStats struct {
	// PDFDocuments is the number of page documents from PDFs.
	PDFDocuments int

	// CorpusDocuments is the number of scholarship record documents.
	CorpusDocuments int

	// Fragments is the total indexed fragment count.
	Fragments int

	// Rebuilt is true when a fresh build ran (false = loaded from disk).
	Rebuilt bool
}

// SourceStatus describes the current knowledge base inputs.
type SourceStatus struct {
	// PDFFiles is the list of PDF file names in the docs directory.
	PDFFiles []string

	// CorpusPresent is true when the scraped corpus file exists.
	CorpusPresent bool

	// IndexedFragments is the fragment count of the loaded index,
	// zero when no index exists yet.
	IndexedFragments int
}

// IngestService owns the knowledge base lifecycle: normalise sources,
// chunk, embed, and build or load the durable vector index.
type IngestService interface {
	// EnsureIndex loads the persisted index if it matches the current
	// source set, otherwise rebuilds it from scratch. Returns
	// domain.ErrNoDocuments when there is nothing to index.
	EnsureIndex(ctx context.Context) (IngestStats, error)

	// Rebuild discards the persisted index and builds a fresh one from
	// the full current source set. There is no incremental upsert.
	Rebuild(ctx context.Context) (IngestStats, error)

	// Status reports the current source inputs and index size.
	Status(ctx context.Context) (SourceStatus, error)

	// MarkStale flags the index so the next EnsureIndex rebuilds.
	// Called by the filesystem watcher when sources change.
	MarkStale()
}

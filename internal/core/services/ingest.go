package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driving"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService owns the knowledge base lifecycle: it normalises the PDF
// and corpus sources, chunks them, embeds the fragments, and keeps the
// durable vector index in step with the sources.
type IngestService struct {
	docsDir    string
	corpusPath string

	pdfNormaliser    driven.PDFNormaliser
	corpusNormaliser driven.CorpusNormaliser
	pipeline         driven.PostProcessorPipeline
	embedder         driven.EmbeddingService
	store            driven.IndexStore

	mu    sync.Mutex
	index driven.VectorIndex
	stale bool
}

// NewIngestService creates a new ingest service. docsDir is scanned for
// *.pdf files; corpusPath points at the scraped scholarship corpus.
func NewIngestService(
	docsDir string,
	corpusPath string,
	pdfNormaliser driven.PDFNormaliser,
	corpusNormaliser driven.CorpusNormaliser,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
) *IngestService {
	return &IngestService{
		docsDir:          docsDir,
		corpusPath:       corpusPath,
		pdfNormaliser:    pdfNormaliser,
		corpusNormaliser: corpusNormaliser,
		pipeline:         pipeline,
		embedder:         embedder,
		store:            store,
	}
}

// EnsureIndex makes a current index available, loading the persisted one
// when it still matches the source set and rebuilding otherwise.
func (s *IngestService) EnsureIndex(ctx context.Context) (driving.IngestStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.currentManifest()
	if err != nil {
		return driving.IngestStats{}, err
	}

	// Fast path: the in-memory handle is still current.
	if s.index != nil && !s.stale && s.index.Manifest() == manifest {
		return driving.IngestStats{Fragments: s.index.Len()}, nil
	}

	if !s.stale {
		idx, err := s.store.Load(ctx, manifest)
		if err == nil {
			logger.Info("Loaded persisted index (%d fragments)", idx.Len())
			s.replaceIndex(idx)
			return driving.IngestStats{Fragments: idx.Len()}, nil
		}
		logger.Debug("Persisted index unusable, rebuilding: %v", err)
	}

	return s.rebuildLocked(ctx, manifest)
}

// Rebuild discards any current index and builds a fresh one from the
// full source set.
func (s *IngestService) Rebuild(ctx context.Context) (driving.IngestStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.currentManifest()
	if err != nil {
		return driving.IngestStats{}, err
	}
	return s.rebuildLocked(ctx, manifest)
}

// rebuildLocked runs the full pipeline. Caller holds s.mu.
func (s *IngestService) rebuildLocked(ctx context.Context, manifest driven.IndexManifest) (driving.IngestStats, error) {
	logger.Section("Index Build")

	pdfPaths, err := s.listPDFs()
	if err != nil {
		return driving.IngestStats{}, err
	}

	pdfDocs, err := s.pdfNormaliser.NormalisePDFs(ctx, pdfPaths)
	if err != nil {
		return driving.IngestStats{}, fmt.Errorf("normalise pdfs: %w", err)
	}

	corpusDocs, err := s.corpusNormaliser.NormaliseCorpus(ctx, s.corpusPath)
	if err != nil {
		return driving.IngestStats{}, fmt.Errorf("normalise corpus: %w", err)
	}

	documents := append(pdfDocs, corpusDocs...)
	if len(documents) == 0 {
		// Nothing to index: no embedding calls, no index written.
		return driving.IngestStats{}, fmt.Errorf("%w: no PDFs in %s and no corpus at %s",
			domain.ErrNoDocuments, s.docsDir, s.corpusPath)
	}
	logger.Info("Normalised %d PDF pages and %d scholarship records", len(pdfDocs), len(corpusDocs))

	var fragments []domain.Fragment
	for i := range documents {
		frags, err := s.pipeline.Process(ctx, &documents[i])
		if err != nil {
			return driving.IngestStats{}, fmt.Errorf("chunk document %s: %w", documents[i].ID, err)
		}
		fragments = append(fragments, frags...)
	}
	logger.Info("Chunked into %d fragments", len(fragments))

	bodies := make([]string, len(fragments))
	for i, frag := range fragments {
		bodies[i] = frag.Body
	}
	vectors, err := s.embedder.EmbedBatch(ctx, bodies)
	if err != nil {
		return driving.IngestStats{}, fmt.Errorf("embed fragments: %w", err)
	}

	idx, err := s.store.Build(ctx, fragments, vectors, manifest)
	if err != nil {
		return driving.IngestStats{}, fmt.Errorf("build index: %w", err)
	}
	logger.Info("Index built (%d fragments)", idx.Len())

	s.replaceIndex(idx)

	return driving.IngestStats{
		PDFDocuments:    len(pdfDocs),
		CorpusDocuments: len(corpusDocs),
		Fragments:       len(fragments),
		Rebuilt:         true,
	}, nil
}

// Status reports the current source inputs and index size.
func (s *IngestService) Status(ctx context.Context) (driving.SourceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pdfPaths, err := s.listPDFs()
	if err != nil {
		return driving.SourceStatus{}, err
	}

	status := driving.SourceStatus{}
	for _, path := range pdfPaths {
		status.PDFFiles = append(status.PDFFiles, filepath.Base(path))
	}

	if _, err := os.Stat(s.corpusPath); err == nil {
		status.CorpusPresent = true
	}

	if s.index != nil {
		status.IndexedFragments = s.index.Len()
		return status, nil
	}

	// No live handle: peek at the persisted copy without rebuilding.
	manifest, err := s.currentManifest()
	if err != nil {
		return driving.SourceStatus{}, err
	}
	if idx, err := s.store.Load(ctx, manifest); err == nil {
		status.IndexedFragments = idx.Len()
		idx.Close()
	}

	return status, nil
}

// MarkStale flags the index so the next EnsureIndex rebuilds. Safe to
// call from the filesystem watcher goroutine.
func (s *IngestService) MarkStale() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

// Index returns the current index handle for retrieval, building it on
// first use.
func (s *IngestService) Index(ctx context.Context) (driven.VectorIndex, error) {
	if _, err := s.EnsureIndex(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, nil
}

// replaceIndex swaps the live handle, closing the previous one. Caller
// holds s.mu.
func (s *IngestService) replaceIndex(idx driven.VectorIndex) {
	if s.index != nil {
		s.index.Close()
	}
	s.index = idx
	s.stale = false
}

// listPDFs returns the sorted absolute paths of *.pdf files in the docs
// directory. A missing directory is an empty source, not an error.
func (s *IngestService) listPDFs() ([]string, error) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read docs dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(s.docsDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// currentManifest fingerprints the source set. Any change in the PDF
// file set, the corpus content, or the embedding model changes the
// fingerprint and forces a rebuild.
func (s *IngestService) currentManifest() (driven.IndexManifest, error) {
	hash := sha256.New()

	paths, err := s.listPDFs()
	if err != nil {
		return driven.IndexManifest{}, err
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return driven.IndexManifest{}, fmt.Errorf("stat %s: %w", path, err)
		}
		fmt.Fprintf(hash, "pdf:%s|%d|%d\n", filepath.Base(path), info.Size(), info.ModTime().UnixNano())
	}

	corpusSum, err := fileChecksum(s.corpusPath)
	if err != nil {
		return driven.IndexManifest{}, err
	}
	fmt.Fprintf(hash, "corpus:%s\n", corpusSum)
	fmt.Fprintf(hash, "model:%s\n", s.embedder.ModelName())

	return driven.IndexManifest{
		Fingerprint:    hex.EncodeToString(hash.Sum(nil)),
		EmbeddingModel: s.embedder.ModelName(),
		Dimensions:     s.embedder.Dimensions(),
	}, nil
}

// fileChecksum returns the hex sha256 of the file content, or "absent"
// when the file does not exist.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "absent", nil
		}
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("checksum %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

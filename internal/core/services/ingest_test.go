package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/postprocessors"
	"github.com/becabot-labs/becabot-cli/internal/postprocessors/chunker"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with keyword-keyed
// unit vectors so similarity in tests is predictable.
type mockEmbedder struct {
	model    string
	embedErr error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.calls++
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "excelencia"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "deporte"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return 3 }

func (m *mockEmbedder) ModelName() string {
	if m.model == "" {
		return "mock-embed"
	}
	return m.model
}

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockPDFNormaliser turns each path into one page document.
type mockPDFNormaliser struct{}

func (mockPDFNormaliser) NormalisePDFs(_ context.Context, paths []string) ([]domain.Document, error) {
	var docs []domain.Document
	for _, path := range paths {
		name := filepath.Base(path)
		docs = append(docs, domain.Document{
			ID:         name + "#0",
			Body:       "Manual de postulación del archivo " + name,
			Provenance: domain.PDFOrigin{FileName: name, Page: 0},
		})
	}
	return docs, nil
}

// mockCorpusNormaliser returns one record per line of the corpus file,
// or nothing when the file is missing.
type mockCorpusNormaliser struct{}

func (mockCorpusNormaliser) NormaliseCorpus(_ context.Context, path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	var docs []domain.Document
	for i, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:         fmt.Sprintf("corpus#%d", i),
			Body:       line,
			Provenance: domain.WebOrigin{Title: line, URL: "https://becas.test/" + fmt.Sprint(i)},
		})
	}
	return docs, nil
}

// mockIndex implements driven.VectorIndex over in-memory slices.
type mockIndex struct {
	fragments []domain.Fragment
	vectors   [][]float32
	manifest  driven.IndexManifest
	closed    bool
}

func (m *mockIndex) Search(_ context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	var result domain.RetrievalResult
	for i, frag := range m.fragments {
		var score float64
		for d := range query {
			score += float64(query[d]) * float64(m.vectors[i][d])
		}
		result = append(result, domain.RetrievedFragment{Fragment: frag, Score: score})
	}
	// Insertion-order stable selection is enough at test sizes.
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].Score > result[i].Score {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	if len(result) > k {
		result = result[:k]
	}
	return result, nil
}

func (m *mockIndex) Manifest() driven.IndexManifest { return m.manifest }
func (m *mockIndex) Len() int                       { return len(m.fragments) }
func (m *mockIndex) Close() error                   { m.closed = true; return nil }

// mockIndexStore implements driven.IndexStore with a single in-memory slot.
type mockIndexStore struct {
	persisted *mockIndex
	builds    int
	loads     int
}

func (m *mockIndexStore) Build(_ context.Context, fragments []domain.Fragment, vectors [][]float32, manifest driven.IndexManifest) (driven.VectorIndex, error) {
	if len(fragments) == 0 {
		return nil, domain.ErrNoDocuments
	}
	m.builds++
	m.persisted = &mockIndex{fragments: fragments, vectors: vectors, manifest: manifest}
	return m.persisted, nil
}

func (m *mockIndexStore) Load(_ context.Context, want driven.IndexManifest) (driven.VectorIndex, error) {
	m.loads++
	if m.persisted == nil || m.persisted.manifest != want {
		return nil, domain.ErrIndexAbsent
	}
	// Fresh handle over the persisted data.
	return &mockIndex{
		fragments: m.persisted.fragments,
		vectors:   m.persisted.vectors,
		manifest:  m.persisted.manifest,
	}, nil
}

// --- Test fixtures ---

type ingestFixture struct {
	service  *IngestService
	store    *mockIndexStore
	embedder *mockEmbedder
	docsDir  string
	corpus   string
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	root := t.TempDir()
	docsDir := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))

	store := &mockIndexStore{}
	embedder := &mockEmbedder{}
	pipeline := postprocessors.NewPipeline(chunker.New())

	return &ingestFixture{
		service: NewIngestService(
			docsDir,
			filepath.Join(root, domain.CorpusSource),
			mockPDFNormaliser{},
			mockCorpusNormaliser{},
			pipeline,
			embedder,
			store,
		),
		store:    store,
		embedder: embedder,
		docsDir:  docsDir,
		corpus:   filepath.Join(root, domain.CorpusSource),
	}
}

func (f *ingestFixture) addPDF(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.docsDir, name), []byte(content), 0o644))
}

func (f *ingestFixture) writeCorpus(t *testing.T, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.corpus, []byte(strings.Join(lines, "\n")), 0o644))
}

// --- Tests ---

func TestEnsureIndex_NoSources(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.EnsureIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.Zero(t, f.embedder.calls, "no embedding calls without documents")
	assert.Zero(t, f.store.builds, "no index written without documents")
}

func TestEnsureIndex_BuildsThenReuses(t *testing.T) {
	f := newIngestFixture(t)
	f.addPDF(t, "manual.pdf", "contenido")
	f.writeCorpus(t, "Beca de Excelencia Académica", "Beca de Deporte")

	stats, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 1, stats.PDFDocuments)
	assert.Equal(t, 2, stats.CorpusDocuments)
	assert.Equal(t, 3, stats.Fragments)
	assert.Equal(t, 1, f.store.builds)

	// Unchanged sources: the live handle is reused, no new build.
	stats, err = f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.Rebuilt)
	assert.Equal(t, 3, stats.Fragments)
	assert.Equal(t, 1, f.store.builds)
}

func TestEnsureIndex_SourceChangeForcesRebuild(t *testing.T) {
	f := newIngestFixture(t)
	f.writeCorpus(t, "Beca de Excelencia Académica")

	_, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.store.builds)

	f.addPDF(t, "nuevo.pdf", "nuevo manual")

	stats, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 2, f.store.builds)
	assert.Equal(t, 1, stats.PDFDocuments)
}

func TestEnsureIndex_MarkStaleForcesRebuild(t *testing.T) {
	f := newIngestFixture(t)
	f.writeCorpus(t, "Beca de Excelencia Académica")

	_, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.store.builds)

	f.service.MarkStale()

	stats, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 2, f.store.builds)
}

func TestEnsureIndex_LoadsPersistedCopy(t *testing.T) {
	f := newIngestFixture(t)
	f.writeCorpus(t, "Beca de Excelencia Académica")

	// First service builds and persists.
	_, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.store.builds)

	// A second service over the same store loads without rebuilding.
	fresh := NewIngestService(
		f.docsDir, f.corpus,
		mockPDFNormaliser{}, mockCorpusNormaliser{},
		postprocessors.NewPipeline(chunker.New()),
		f.embedder, f.store,
	)
	stats, err := fresh.EnsureIndex(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.Rebuilt)
	assert.Equal(t, 1, stats.Fragments)
	assert.Equal(t, 1, f.store.builds)
}

func TestRebuild_AlwaysRebuilds(t *testing.T) {
	f := newIngestFixture(t)
	f.writeCorpus(t, "Beca de Excelencia Académica")

	_, err := f.service.EnsureIndex(context.Background())
	require.NoError(t, err)

	stats, err := f.service.Rebuild(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 2, f.store.builds)
}

func TestStatus(t *testing.T) {
	f := newIngestFixture(t)
	f.addPDF(t, "b-manual.pdf", "b")
	f.addPDF(t, "a-manual.pdf", "a")
	f.addPDF(t, "notas.txt", "ignored")

	status, err := f.service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a-manual.pdf", "b-manual.pdf"}, status.PDFFiles)
	assert.False(t, status.CorpusPresent)
	assert.Zero(t, status.IndexedFragments)

	f.writeCorpus(t, "Beca de Excelencia Académica")
	_, err = f.service.EnsureIndex(context.Background())
	require.NoError(t, err)

	status, err = f.service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.CorpusPresent)
	assert.Equal(t, 3, status.IndexedFragments)
}

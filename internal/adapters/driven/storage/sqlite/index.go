// Package sqlite provides the durable vector index on a single SQLite
// database file. Rebuilds write to a fresh file and atomically swap it
// over the live one, so readers never observe a half-written index.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// Ensure the store implements the port.
var _ driven.IndexStore = (*Store)(nil)

// IndexFileName is the well-known index file inside the data directory.
const IndexFileName = "index.db"

// DefaultTopK is the default number of search hits. Generous recall is
// favoured over precision; the generation step filters noise.
const DefaultTopK = 15

const schema = `
CREATE TABLE index_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	fingerprint TEXT NOT NULL,
	embedding_model TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	fragment_count INTEGER NOT NULL,
	built_at DATETIME NOT NULL
);

CREATE TABLE fragments (
	seq INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	body TEXT NOT NULL,
	position INTEGER NOT NULL,
	origin_type TEXT NOT NULL,
	file_name TEXT NOT NULL DEFAULT '',
	page INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT '',
	types TEXT NOT NULL DEFAULT '',
	embedding BLOB NOT NULL
);
`

// Store builds and loads vector indexes under one data directory.
type Store struct {
	dataDir string
}

// NewStore creates an index store rooted at dataDir.
// If dataDir is empty, defaults to ~/.becabot/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".becabot", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Store{dataDir: dataDir}, nil
}

// Path returns the live index file path.
func (s *Store) Path() string {
	return filepath.Join(s.dataDir, IndexFileName)
}

// Build persists the fragments and their vectors as a brand-new index,
// then atomically replaces the live file. An empty fragment list fails
// with domain.ErrNoDocuments and leaves prior state untouched.
func (s *Store) Build(
	ctx context.Context,
	fragments []domain.Fragment,
	vectors [][]float32,
	manifest driven.IndexManifest,
) (driven.VectorIndex, error) {
	if len(fragments) == 0 {
		return nil, domain.ErrNoDocuments
	}
	if len(fragments) != len(vectors) {
		return nil, fmt.Errorf("%w: %d fragments but %d vectors",
			domain.ErrInvalidInput, len(fragments), len(vectors))
	}

	tmpPath := s.Path() + ".building"
	// A previous crashed build may have left the temp file behind.
	_ = os.Remove(tmpPath)

	if err := s.writeIndexFile(ctx, tmpPath, fragments, vectors, manifest); err != nil {
		_ = os.Remove(tmpPath)
		return nil, err
	}

	// Exclusive swap: the live path is replaced in one rename.
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("swapping index into place: %w", err)
	}

	logger.Info("Vector index built: %d fragments (%s)", len(fragments), manifest.EmbeddingModel)
	return s.open(ctx, manifest, false)
}

// Load opens the previously persisted index. Any failure to open, read,
// or match the manifest is reported as domain.ErrIndexAbsent so the
// caller falls back to a full rebuild.
func (s *Store) Load(ctx context.Context, want driven.IndexManifest) (driven.VectorIndex, error) {
	if _, err := os.Stat(s.Path()); err != nil {
		return nil, domain.ErrIndexAbsent
	}
	return s.open(ctx, want, true)
}

// writeIndexFile creates and fills a fresh index database at path.
func (s *Store) writeIndexFile(
	ctx context.Context,
	path string,
	fragments []domain.Fragment,
	vectors [][]float32,
	manifest driven.IndexManifest,
) error {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("creating index database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, fingerprint, embedding_model, dimensions, fragment_count, built_at)
		VALUES (1, ?, ?, ?, ?, ?)`,
		manifest.Fingerprint, manifest.EmbeddingModel, manifest.Dimensions,
		len(fragments), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragments (seq, id, document_id, body, position,
			origin_type, file_name, page, title, url, level, types, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fragment insert: %w", err)
	}
	defer stmt.Close()

	for i, fragment := range fragments {
		row := newFragmentRow(fragment)
		if _, err := stmt.ExecContext(ctx,
			i, fragment.ID, fragment.DocumentID, fragment.Body, fragment.Position,
			row.originType, row.fileName, row.page, row.title, row.url, row.level, row.types,
			float32SliceToBytes(vectors[i]),
		); err != nil {
			return fmt.Errorf("inserting fragment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// open reads the whole index into memory and returns a search handle.
// The corpus is small, so brute-force search over resident vectors is
// both exact and fast enough.
func (s *Store) open(ctx context.Context, want driven.IndexManifest, verify bool) (driven.VectorIndex, error) {
	db, err := sql.Open("sqlite", s.Path()+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, domain.ErrIndexAbsent
	}
	defer db.Close()

	var manifest driven.IndexManifest
	var count int
	err = db.QueryRowContext(ctx, `
		SELECT fingerprint, embedding_model, dimensions, fragment_count
		FROM index_meta WHERE id = 1`).
		Scan(&manifest.Fingerprint, &manifest.EmbeddingModel, &manifest.Dimensions, &count)
	if err != nil {
		logger.Warn("Index metadata unreadable, treating as absent: %v", err)
		return nil, domain.ErrIndexAbsent
	}

	if verify {
		if manifest.Fingerprint != want.Fingerprint {
			logger.Info("Index fingerprint changed, rebuild required")
			return nil, domain.ErrIndexAbsent
		}
		if manifest.EmbeddingModel != want.EmbeddingModel || manifest.Dimensions != want.Dimensions {
			// Mixing embedding models between build and query is a
			// correctness bug, not just a quality one.
			logger.Warn("Index was built with %s/%d, want %s/%d; rebuild required",
				manifest.EmbeddingModel, manifest.Dimensions,
				want.EmbeddingModel, want.Dimensions)
			return nil, domain.ErrIndexAbsent
		}
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, body, position,
			origin_type, file_name, page, title, url, level, types, embedding
		FROM fragments ORDER BY seq`)
	if err != nil {
		logger.Warn("Index fragments unreadable, treating as absent: %v", err)
		return nil, domain.ErrIndexAbsent
	}
	defer rows.Close()

	idx := &Index{manifest: manifest}
	for rows.Next() {
		var fragment domain.Fragment
		var row fragmentRow
		var blob []byte
		if err := rows.Scan(
			&fragment.ID, &fragment.DocumentID, &fragment.Body, &fragment.Position,
			&row.originType, &row.fileName, &row.page, &row.title, &row.url, &row.level, &row.types,
			&blob,
		); err != nil {
			return nil, domain.ErrIndexAbsent
		}
		fragment.Provenance = row.provenance()
		idx.fragments = append(idx.fragments, fragment)
		idx.vectors = append(idx.vectors, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrIndexAbsent
	}

	return idx, nil
}

// Index is an in-memory search handle over one persisted index file.
type Index struct {
	manifest  driven.IndexManifest
	fragments []domain.Fragment
	vectors   [][]float32
}

// Ensure Index implements the port.
var _ driven.VectorIndex = (*Index)(nil)

// Search returns up to k nearest fragments by cosine similarity.
// Vectors are L2-normalised, so similarity is the dot product.
// Ties break by insertion order.
func (idx *Index) Search(_ context.Context, query []float32, k int) (domain.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	type scored struct {
		seq   int
		score float64
	}
	hits := make([]scored, len(idx.vectors))
	for i, vec := range idx.vectors {
		hits[i] = scored{seq: i, score: dot(vec, query)}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if k > len(hits) {
		k = len(hits)
	}
	result := make(domain.RetrievalResult, 0, k)
	for _, hit := range hits[:k] {
		result = append(result, domain.RetrievedFragment{
			Fragment: idx.fragments[hit.seq],
			Score:    hit.score,
		})
	}
	return result, nil
}

// Manifest returns the build metadata persisted with the index.
func (idx *Index) Manifest() driven.IndexManifest {
	return idx.manifest
}

// Len returns the number of indexed fragments.
func (idx *Index) Len() int {
	return len(idx.fragments)
}

// Close releases resources. The handle is memory-resident, so there is
// nothing to release.
func (idx *Index) Close() error {
	return nil
}

// fragmentRow is the flattened provenance representation stored in the
// fragments table.
type fragmentRow struct {
	originType string
	fileName   string
	page       int
	title      string
	url        string
	level      string
	types      string
}

const (
	originPDF = "pdf"
	originWeb = "web"
)

func newFragmentRow(fragment domain.Fragment) fragmentRow {
	switch origin := fragment.Provenance.(type) {
	case domain.PDFOrigin:
		return fragmentRow{originType: originPDF, fileName: origin.FileName, page: origin.Page}
	case domain.WebOrigin:
		return fragmentRow{
			originType: originWeb,
			title:      origin.Title,
			url:        origin.URL,
			level:      origin.Level,
			types:      origin.Types,
		}
	default:
		return fragmentRow{originType: originWeb}
	}
}

func (r fragmentRow) provenance() domain.Provenance {
	if r.originType == originPDF {
		return domain.PDFOrigin{FileName: r.fileName, Page: r.page}
	}
	return domain.WebOrigin{Title: r.title, URL: r.url, Level: r.level, Types: r.types}
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// dot computes the dot product of two vectors.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

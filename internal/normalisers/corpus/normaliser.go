// Package corpus converts the scraped scholarship corpus file into
// documents, one per scholarship record.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.CorpusNormaliser = (*Normaliser)(nil)

// Normaliser parses the crawler's JSON output.
type Normaliser struct{}

// New creates a corpus normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// NormaliseCorpus reads the JSON array of scholarship records at path.
// A missing file or malformed JSON is reported and yields an empty
// list; ingestion continues with whatever PDFs exist.
func (n *Normaliser) NormaliseCorpus(_ context.Context, path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Corpus file not readable at %s: %v", path, err)
		return nil, nil
	}

	var records []domain.ScholarshipRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("Corpus file %s is not valid JSON: %v", path, err)
		return nil, nil
	}

	docs := make([]domain.Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, recordDocument(record))
	}

	logger.Debug("Loaded %d scholarship record(s) from %s", len(docs), path)
	return docs, nil
}

// recordDocument renders one record into the labelled body layout the
// chunker and the model see. Internal newlines in detail values are
// collapsed to spaces.
func recordDocument(record domain.ScholarshipRecord) domain.Document {
	title := record.Titulo
	if title == "" {
		title = "Beca sin título"
	}
	level := record.Nivel
	if level == "" {
		level = "General"
	}
	types := strings.Join(record.Tipos, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "TÍTULO DE LA BECA: %s\n", title)
	fmt.Fprintf(&b, "NIVEL ACADÉMICO: %s\n", level)
	fmt.Fprintf(&b, "TIPO: %s\n", types)
	fmt.Fprintf(&b, "MODALIDAD: %s\n", strings.Join(record.Modalidades, ", "))
	fmt.Fprintf(&b, "ENLACE: %s\n", record.URL)
	b.WriteString("\nDETALLES, REQUISITOS Y BENEFICIOS:\n")
	for _, pair := range record.ContentPairs() {
		value := strings.Join(strings.Fields(pair.Value), " ")
		fmt.Fprintf(&b, "- %s: %s\n", pair.Key, value)
	}

	return domain.Document{
		ID:   uuid.New().String(),
		Body: strings.TrimSpace(b.String()),
		Provenance: domain.WebOrigin{
			Title: title,
			URL:   record.URL,
			Level: level,
			Types: types,
		},
	}
}

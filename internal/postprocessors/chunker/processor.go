// Package chunker provides a recursive boundary-preferring text
// chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per fragment.
// Sized so one scholarship record usually survives as a single fragment.
const DefaultChunkSize = 2000

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive fragments of one document.
const DefaultChunkOverlap = 300

// RecordTitleMarker is the section boundary a scholarship record body
// starts with. Splitting here keeps a record title attached to its
// detail lines.
const RecordTitleMarker = "\nTÍTULO DE LA BECA:"

// boundary is one rung of the split-preference ladder.
type boundary struct {
	sep string

	// keepWithNext starts the following fragment at the separator
	// itself instead of after it (used for section markers).
	keepWithNext bool
}

// defaultBoundaries is the preference order: paragraph break, record
// title marker, line break, space. A raw rune cut is the last resort.
var defaultBoundaries = []boundary{
	{sep: "\n\n"},
	{sep: RecordTitleMarker, keepWithNext: true},
	{sep: "\n"},
	{sep: " "},
}

// Processor splits document content into bounded overlapping fragments.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	boundaries []boundary
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the fragment size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between fragments in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		boundaries: defaultBoundaries,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for the fragment to advance.
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document body into fragments. Input fragments are
// ignored; this processor creates new fragments from document content.
// Fragments inherit the document's provenance and keep source order.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Fragment) ([]domain.Fragment, error) {
	if doc.Body == "" {
		return nil, nil
	}

	body := doc.Body
	var fragments []domain.Fragment

	start := 0
	position := 0
	for start < len(body) {
		end := start + p.chunkSize
		if end >= len(body) {
			end = len(body)
		} else {
			end = p.cutPoint(body, start, end)
		}

		fragments = append(fragments, domain.Fragment{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Body:       body[start:end],
			Position:   position,
			Provenance: doc.Provenance,
		})
		position++

		if end == len(body) {
			break
		}

		// Step back by the overlap so consecutive fragments share a
		// continuity window, while always advancing.
		next := end - p.overlap
		for next > start && !utf8Start(body[next]) {
			next--
		}
		if next <= start {
			next = start + 1
			for next < end && !utf8Start(body[next]) {
				next++
			}
		}
		start = next
	}

	return fragments, nil
}

// cutPoint finds the best split position in (start, limit], preferring
// the highest-ranked boundary that occurs inside the window and leaves
// a fragment longer than the overlap. Falls back to a clean rune
// boundary at the size limit.
func (p *Processor) cutPoint(body string, start, limit int) int {
	window := body[start:limit]

	for _, b := range p.boundaries {
		idx := strings.LastIndex(window, b.sep)
		if idx <= 0 {
			continue
		}
		cut := start + idx
		if !b.keepWithNext {
			cut += len(b.sep)
		}
		// A cut inside the overlap window cannot advance the next
		// fragment past this one; try a lower-ranked boundary instead.
		if cut-start <= p.overlap {
			continue
		}
		return cut
	}

	// No boundary in the window: cut at the limit without splitting a
	// multi-byte rune.
	cut := limit
	for cut > start && !utf8Start(body[cut]) {
		cut--
	}
	if cut == start {
		return limit
	}
	return cut
}

// utf8Start reports whether b is the first byte of a UTF-8 sequence.
func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

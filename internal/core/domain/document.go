package domain

import "fmt"

// CorpusSource is the fixed source token for documents that come from the
// scraped scholarship corpus file.
const CorpusSource = "corpus_utpl.json"

// Provenance identifies where a document (and every fragment cut from it)
// originally came from. It is a closed set of variants so that source
// attribution can handle every case exhaustively.
type Provenance interface {
	// Source returns the provenance token: the PDF file name, or the
	// fixed corpus file token for scraped records.
	Source() string

	// Label returns a short human-readable description.
	Label() string

	sealed()
}

// PDFOrigin marks content extracted from one page of an uploaded PDF.
type PDFOrigin struct {
	// FileName is the base name of the PDF file (no directory).
	FileName string

	// Page is the zero-based page index within the file.
	Page int
}

// Source returns the PDF file name.
func (p PDFOrigin) Source() string { return p.FileName }

// Label returns "file.pdf (página N)" with a 1-based page number.
func (p PDFOrigin) Label() string {
	return fmt.Sprintf("%s (página %d)", p.FileName, p.Page+1)
}

func (PDFOrigin) sealed() {}

// WebOrigin marks content scraped from one scholarship detail page.
type WebOrigin struct {
	// Title is the scholarship title, e.g. "Beca de Excelencia".
	Title string

	// URL is the canonical detail page address.
	URL string

	// Level is the academic level ("Grado", "Posgrado", ...).
	Level string

	// Types is the comma-joined scholarship type list.
	Types string
}

// Source returns the fixed corpus file token.
func (w WebOrigin) Source() string { return CorpusSource }

// Label returns the scholarship title.
func (w WebOrigin) Label() string { return w.Title }

func (WebOrigin) sealed() {}

// Document is the uniform representation of one ingested source unit:
// a single PDF page, or a single scholarship record. Documents are
// created by normalisers and are immutable afterwards.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Body is the full normalised text content before chunking.
	Body string

	// Provenance records where the body came from. Always set.
	Provenance Provenance
}

// Fragment is a bounded slice of a Document body, the unit that is
// embedded and retrieved. Fragments inherit their parent document's
// provenance unchanged.
type Fragment struct {
	// ID is the unique identifier for the fragment.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Body is the fragment text. Bounded by the chunker's size limit.
	Body string

	// Position is the ordinal position within the parent document.
	Position int

	// Provenance is inherited from the parent Document.
	Provenance Provenance
}

package domain

import "sort"

// PDFSource lists the pages of one PDF file that contributed to an
// answer. Pages are deduplicated, zero-based, and sorted numerically.
type PDFSource struct {
	FileName string
	Pages    []int
}

// AttributionView is the human-readable provenance summary for one
// retrieval: which PDF pages and which scholarship titles contributed.
type AttributionView struct {
	// PDFs groups PDF-origin fragments by file name, ordered by name.
	PDFs []PDFSource

	// Scholarships is the deduplicated list of web-origin scholarship
	// titles, in first-retrieved order.
	Scholarships []string
}

// Empty reports whether nothing was retrieved from either source type.
func (v AttributionView) Empty() bool {
	return len(v.PDFs) == 0 && len(v.Scholarships) == 0
}

// Summarize groups a retrieval result by provenance type. It is a pure
// presentation transform: an empty retrieval yields an empty view,
// never an error.
func Summarize(retrieval RetrievalResult) AttributionView {
	var view AttributionView

	pdfPages := make(map[string]map[int]struct{})
	var pdfOrder []string
	seenTitles := make(map[string]struct{})

	for _, hit := range retrieval {
		switch origin := hit.Fragment.Provenance.(type) {
		case PDFOrigin:
			pages, ok := pdfPages[origin.FileName]
			if !ok {
				pages = make(map[int]struct{})
				pdfPages[origin.FileName] = pages
				pdfOrder = append(pdfOrder, origin.FileName)
			}
			pages[origin.Page] = struct{}{}
		case WebOrigin:
			if _, ok := seenTitles[origin.Title]; ok {
				continue
			}
			seenTitles[origin.Title] = struct{}{}
			view.Scholarships = append(view.Scholarships, origin.Title)
		}
	}

	sort.Strings(pdfOrder)
	for _, name := range pdfOrder {
		pages := make([]int, 0, len(pdfPages[name]))
		for page := range pdfPages[name] {
			pages = append(pages, page)
		}
		sort.Ints(pages)
		view.PDFs = append(view.PDFs, PDFSource{FileName: name, Pages: pages})
	}

	return view
}

// Package pdf extracts page-segmented text from PDF files using the
// poppler pdftotext tool.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.PDFNormaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes external commands. Injectable for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser converts PDF files into one Document per page.
type Normaliser struct {
	runner CommandRunner
}

// New creates a PDF normaliser that shells out to pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}}
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// CheckAvailable verifies pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `PDF support requires the pdftotext tool (poppler):
  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils`
}

// NormalisePDFs converts each readable PDF into page documents.
// Unreadable files are logged and skipped so one bad PDF never blocks
// ingestion of the rest.
func (n *Normaliser) NormalisePDFs(ctx context.Context, paths []string) ([]domain.Document, error) {
	var docs []domain.Document

	for _, path := range paths {
		pages, err := n.extractPages(ctx, path)
		if err != nil {
			logger.Warn("Skipping PDF %s: %v", path, err)
			continue
		}

		name := filepath.Base(path)
		for i, page := range pages {
			body := strings.TrimSpace(page)
			if body == "" {
				continue
			}
			docs = append(docs, domain.Document{
				ID:         uuid.New().String(),
				Body:       body,
				Provenance: domain.PDFOrigin{FileName: name, Page: i},
			})
		}
		logger.Debug("Extracted %d page(s) from %s", len(pages), name)
	}

	return docs, nil
}

// extractPages runs pdftotext and splits its output on form feeds,
// which pdftotext emits between pages.
func (n *Normaliser) extractPages(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	// "-" writes the extracted text to stdout.
	out, err := n.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	return strings.Split(string(out), "\f"), nil
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the knowledge base sources",
	Long:  `Shows the loaded PDF manuals, the corpus state, and the index size.`,
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("services not configured")
	}

	status, err := ingestService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("read sources: %w", err)
	}

	if len(status.PDFFiles) == 0 {
		cmd.Println("Manuales PDF: ninguno")
	} else {
		cmd.Println("Manuales PDF:")
		for _, name := range status.PDFFiles {
			cmd.Printf("  - %s\n", name)
		}
	}

	if status.CorpusPresent {
		cmd.Println("Corpus de becas: cargado")
	} else {
		cmd.Println("Corpus de becas: no encontrado")
	}

	cmd.Printf("Fragmentos indexados: %d\n", status.IndexedFragments)
	return nil
}

// printSources renders the provenance summary under an answer.
func printSources(cmd *cobra.Command, view domain.AttributionView) {
	if view.Empty() {
		return
	}

	cmd.Println("Fuentes:")
	for _, pdf := range view.PDFs {
		cmd.Printf("  - %s (%s)\n", pdf.FileName, formatPages(pdf.Pages))
	}
	for _, title := range view.Scholarships {
		cmd.Printf("  - %s\n", title)
	}
}

// formatPages renders zero-based page indices as a human page list.
func formatPages(pages []int) string {
	if len(pages) == 1 {
		return fmt.Sprintf("página %d", pages[0]+1)
	}

	labels := make([]string, len(pages))
	for i, page := range pages {
		labels[i] = fmt.Sprint(page + 1)
	}
	return "páginas " + strings.Join(labels, ", ")
}

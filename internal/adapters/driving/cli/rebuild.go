package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the knowledge base index",
	Long: `Discards the persisted index and rebuilds it from the full current
source set: every PDF manual and the scholarship corpus. There is no
incremental update; a rebuild always starts from scratch.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("services not configured")
	}

	cmd.Println("Reconstruyendo la base de conocimientos...")

	stats, err := ingestService.Rebuild(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoDocuments) {
			cmd.Println("No hay documentos para indexar.")
			cmd.Println("Agrega manuales PDF al directorio de documentos o el corpus de becas.")
			return nil
		}
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Listo: %d páginas PDF, %d registros de becas, %d fragmentos indexados.\n",
		stats.PDFDocuments, stats.CorpusDocuments, stats.Fragments)
	return nil
}

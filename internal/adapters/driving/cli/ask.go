package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [pregunta]",
	Short: "Ask a single scholarship question",
	Long: `Answers one question about UTPL scholarships and exits.
The answer lists its sources: PDF manual pages and scholarship titles.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil || ingestService == nil {
		return errors.New("services not configured")
	}

	ctx := cmd.Context()
	ready, err := prepareIndex(ctx, cmd)
	if err != nil {
		return err
	}
	if !ready {
		return nil
	}

	answer, err := chatService.Ask(ctx, domain.NewSession(), args[0])
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	cmd.Println(answer.Text)
	printSources(cmd, answer.Sources)
	return nil
}

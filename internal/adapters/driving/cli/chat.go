package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/becabot-labs/becabot-cli/internal/adapters/driving/tui"
	"github.com/becabot-labs/becabot-cli/internal/core/domain"
)

var chatTUI bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive scholarship conversation",
	Long: `Starts an interactive conversation about UTPL scholarships.

Type your questions in Spanish; "reiniciar" clears the conversation and
"salir" ends it. Use --tui for the full-screen interface.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatTUI, "tui", false, "use the full-screen terminal interface")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
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

	if chatTUI {
		return tui.Run(chatService)
	}

	session := domain.NewSession()
	cmd.Println("¡Hola! Soy BecaBot, tu asistente de becas de la UTPL.")
	cmd.Println(`Escribe tu pregunta, "reiniciar" para empezar de nuevo o "salir" para terminar.`)
	cmd.Println()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("tú> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "salir", "exit", "quit":
			cmd.Println("¡Hasta pronto!")
			return nil
		case "reiniciar", "reset":
			chatService.Reset(session)
			cmd.Println("Conversación reiniciada.")
			continue
		}

		answer, err := chatService.Ask(ctx, session, question)
		if err != nil {
			return fmt.Errorf("answer failed: %w", err)
		}

		cmd.Println()
		cmd.Println("becabot> " + answer.Text)
		printSources(cmd, answer.Sources)
		cmd.Println()
	}

	return scanner.Err()
}

// prepareIndex makes sure the knowledge base is ready, reporting a
// waiting state instead of failing when there are no sources yet.
func prepareIndex(ctx context.Context, cmd *cobra.Command) (bool, error) {
	stats, err := ingestService.EnsureIndex(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoDocuments) {
			cmd.Println("Aún no hay documentos para consultar.")
			cmd.Println("Agrega manuales PDF al directorio de documentos o el corpus de becas y vuelve a intentarlo.")
			return false, nil
		}
		return false, fmt.Errorf("prepare knowledge base: %w", err)
	}

	if stats.Rebuilt {
		cmd.Printf("Base de conocimientos actualizada: %d fragmentos indexados.\n", stats.Fragments)
	}
	return true, nil
}

// Package cli provides the cobra command-line interface for becabot.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/becabot-labs/becabot-cli/internal/core/ports/driving"
	"github.com/becabot-labs/becabot-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Global flags.
var (
	verbose    bool
	configPath string
)

// Services injected by the composition root before Execute.
var (
	ingestService driving.IngestService
	chatService   driving.ChatService
)

// setupFunc builds the services once flags are parsed. Installed by the
// composition root so the CLI layer stays free of wiring.
var setupFunc func() error

var rootCmd = &cobra.Command{
	Use:   "becabot",
	Short: "Asistente de becas de la UTPL",
	Long: `becabot responde preguntas sobre becas de la UTPL a partir de los
manuales PDF y del corpus de becas recopilado del sitio web.

Las respuestas se generan únicamente con la información indexada y cada
respuesta indica sus fuentes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		// Informational commands run without backend wiring.
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		if setupFunc != nil {
			return setupFunc()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to becabot.toml (default ~/.becabot/becabot.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string shown by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the core services.
func SetServices(ingest driving.IngestService, chat driving.ChatService) {
	ingestService = ingest
	chatService = chat
}

// SetSetupFunc installs the deferred wiring hook. It runs after flag
// parsing, before any command body.
func SetSetupFunc(fn func() error) {
	setupFunc = fn
}

// ConfigPath returns the --config flag value, empty for the default.
func ConfigPath() string {
	return configPath
}

// Command becabot is a scholarship assistant for the UTPL: it indexes
// PDF manuals and the scraped scholarship corpus, and answers questions
// grounded in them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/becabot-labs/becabot-cli/internal/adapters/driven/config/file"
	"github.com/becabot-labs/becabot-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/becabot-labs/becabot-cli/internal/adapters/driven/embedding/openai"
	"github.com/becabot-labs/becabot-cli/internal/adapters/driven/llm/gemini"
	ollamachat "github.com/becabot-labs/becabot-cli/internal/adapters/driven/llm/ollama"
	"github.com/becabot-labs/becabot-cli/internal/adapters/driven/storage/sqlite"
	"github.com/becabot-labs/becabot-cli/internal/adapters/driven/watch"
	"github.com/becabot-labs/becabot-cli/internal/adapters/driving/cli"
	"github.com/becabot-labs/becabot-cli/internal/core/ports/driven"
	"github.com/becabot-labs/becabot-cli/internal/core/services"
	"github.com/becabot-labs/becabot-cli/internal/logger"
	"github.com/becabot-labs/becabot-cli/internal/normalisers/corpus"
	"github.com/becabot-labs/becabot-cli/internal/normalisers/pdf"
	"github.com/becabot-labs/becabot-cli/internal/postprocessors"
	"github.com/becabot-labs/becabot-cli/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetSetupFunc(setup)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup wires the application once flags are parsed. API keys come from
// the environment, optionally seeded from a .env file.
func setup() error {
	// Missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}

	// The embedding backend is required for both ingestion and querying;
	// an unreachable backend fails startup instead of the first question.
	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := embedder.Ping(pingCtx); err != nil {
		return fmt.Errorf("embedding backend unavailable: %w", err)
	}

	chatModel, err := buildChatModel(cfg.Chat)
	if err != nil {
		return err
	}

	if err := pdf.CheckAvailable(); err != nil {
		logger.Warn("%v; PDF manuals will be skipped", err)
		logger.Warn("%s", pdf.InstallInstructions())
	}

	store, err := sqlite.NewStore(cfg.Sources.DataDir)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}

	pipeline := postprocessors.NewPipeline(chunker.New(
		chunker.WithChunkSize(cfg.Index.ChunkSize),
		chunker.WithOverlap(cfg.Index.ChunkOverlap),
	))

	ingest := services.NewIngestService(
		cfg.Sources.DocsDir,
		cfg.Sources.CorpusPath,
		pdf.New(),
		corpus.New(),
		pipeline,
		embedder,
		store,
	)

	if cfg.Sources.Watch {
		if err := os.MkdirAll(cfg.Sources.DocsDir, 0o755); err != nil {
			return fmt.Errorf("create docs dir: %w", err)
		}
		watcher, err := watch.New(cfg.Sources.DocsDir, cfg.Sources.CorpusPath, ingest)
		if err != nil {
			logger.Warn("Source watcher unavailable: %v", err)
		} else {
			watcher.Start()
		}
	}

	retriever := services.NewRetriever(embedder, ingest, cfg.Index.TopK)
	chat := services.NewChatService(retriever, chatModel,
		services.WithTemperature(cfg.Chat.Temperature),
		services.WithMaxTokens(cfg.Chat.MaxTokens),
	)

	cli.SetServices(ingest, chat)
	return nil
}

// loadConfig reads the configuration from --config or the default
// location, creating the becabot home on first run.
func loadConfig() (file.Config, error) {
	if path := cli.ConfigPath(); path != "" {
		return file.Load(path)
	}
	return file.LoadDefault()
}

func buildEmbedder(cfg file.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func buildChatModel(cfg file.ChatConfig) (driven.ChatModel, error) {
	switch cfg.Provider {
	case "", "gemini":
		return gemini.NewChatModel(gemini.Config{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "ollama":
		return ollamachat.NewChatModel(ollamachat.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}

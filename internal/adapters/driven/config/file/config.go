// Package file provides the TOML configuration for the becabot CLI.
// Configuration lives in becabot.toml inside the becabot home directory
// (default ~/.becabot); every field has a working default so a missing
// file is not an error.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the becabot home directory under $HOME.
const DefaultDirName = ".becabot"

// FileName is the configuration file name inside the becabot home.
const FileName = "becabot.toml"

// Config is the full CLI configuration.
type Config struct {
	// Sources configures where the knowledge base inputs live.
	Sources SourcesConfig `toml:"sources"`

	// Index configures chunking and retrieval.
	Index IndexConfig `toml:"index"`

	// Embedding selects and configures the embedding provider.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Chat selects and configures the answering model.
	Chat ChatConfig `toml:"chat"`
}

// SourcesConfig locates the knowledge base inputs and the index storage.
type SourcesConfig struct {
	// DocsDir is scanned for *.pdf files.
	DocsDir string `toml:"docs_dir"`

	// CorpusPath is the scraped scholarship corpus JSON file.
	CorpusPath string `toml:"corpus_path"`

	// DataDir holds the persisted vector index.
	DataDir string `toml:"data_dir"`

	// Watch enables the filesystem watcher that flags the index stale
	// when sources change.
	Watch bool `toml:"watch"`
}

// IndexConfig holds chunking and retrieval parameters.
type IndexConfig struct {
	// ChunkSize is the fragment size in characters.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive fragments.
	ChunkOverlap int `toml:"chunk_overlap"`

	// TopK is how many fragments ground one answer.
	TopK int `toml:"top_k"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`
}

// ChatConfig selects the answering model.
type ChatConfig struct {
	// Provider is "gemini" or "ollama".
	Provider string `toml:"provider"`

	// Model is the chat model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// Temperature for answer generation.
	Temperature float64 `toml:"temperature"`

	// MaxTokens caps the answer length.
	MaxTokens int `toml:"max_tokens"`
}

// DefaultDir returns the becabot home directory.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Default returns the configuration used when no file overrides it,
// rooted at the given becabot home directory.
func Default(baseDir string) Config {
	return Config{
		Sources: SourcesConfig{
			DocsDir:    filepath.Join(baseDir, "docs"),
			CorpusPath: filepath.Join(baseDir, "corpus_utpl.json"),
			DataDir:    filepath.Join(baseDir, "data"),
			Watch:      true,
		},
		Index: IndexConfig{
			ChunkSize:    2000,
			ChunkOverlap: 300,
			TopK:         15,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
		},
		Chat: ChatConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
	}
}

// Load reads the configuration file at path. A missing file returns the
// defaults rooted at the file's directory; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads the configuration from the becabot home directory,
// creating the directory if needed.
func LoadDefault() (Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Config{}, fmt.Errorf("create config dir: %w", err)
	}
	return Load(filepath.Join(dir, FileName))
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ragchat/internal/domain"
)

// Environment keys read from the process environment.
const (
	KeyOpenAIAPIKey          = "OPENAI_API_KEY"
	KeyGoogleAPIKey          = "GOOGLE_API_KEY"
	KeyOpenAILLMModel        = "OPENAI_LLM_MODEL"
	KeyGoogleLLMModel        = "GOOGLE_LLM_MODEL"
	KeyOpenAIEmbeddingsModel = "OPENAI_EMBEDDINGS_MODEL"
	KeyGoogleEmbeddingsModel = "GOOGLE_EMBEDDINGS_MODEL"
	KeyPDFPath               = "PDF_PATH"
	KeyDatabaseURL           = "DATABASE_URL"
	KeyCollectionName        = "PG_VECTOR_COLLECTION_NAME"
)

// Vector store backends.
const (
	StorePGVector = "pgvector"
	StoreQdrant   = "qdrant"
	StoreMemory   = "memory"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	BatchSize   int    `yaml:"batch_size" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries" validate:"gte=0"`
}

// GoogleEmbedderConfig holds configuration for the Gemini embedder.
type GoogleEmbedderConfig struct {
	Model      string `yaml:"model"`
	BatchSize  int    `yaml:"batch_size" validate:"gte=0"`
	MaxRetries int    `yaml:"max_retries" validate:"gte=0"`
}

// EmbedderConfig configures both embedding providers; the API keys select one.
type EmbedderConfig struct {
	OpenAI OpenAIEmbedderConfig `yaml:"openai"`
	Google GoogleEmbedderConfig `yaml:"google"`
}

// OpenAILLMConfig holds configuration for the OpenAI chat model.
type OpenAILLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries" validate:"gte=0"`
}

// GoogleLLMConfig holds configuration for the Gemini chat model.
type GoogleLLMConfig struct {
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
	MaxRetries  int    `yaml:"max_retries" validate:"gte=0"`
}

// LLMConfig configures both chat providers; the API keys select one.
type LLMConfig struct {
	OpenAI OpenAILLMConfig `yaml:"openai"`
	Google GoogleLLMConfig `yaml:"google"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int `yaml:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
}

// RetrievalConfig configures similarity search and per-question limits.
type RetrievalConfig struct {
	TopK        int `yaml:"top_k" validate:"gt=0"`
	TimeoutSecs int `yaml:"timeout_secs" validate:"gte=0"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey string `yaml:"api_key"`
	UseTLS bool   `yaml:"use_tls"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" validate:"oneof=pgvector qdrant memory"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`

	// Env is the environment snapshot taken at load time. Secrets and
	// connection strings are only read from here.
	Env Env `yaml:"-"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// The process environment is captured into Env and overrides model names.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finish(defaultConfig())
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return finish(cfg)
}

// LoadDefault tries ./rag.yaml first, then ~/.config/ragchat/config.yaml.
// If neither exists, defaults are returned and nothing is written.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "rag.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(userPath)
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks structural constraints of the tunables.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Collection returns the configured collection name.
func (c *AppConfig) Collection() string { return c.Env.Get(KeyCollectionName) }

// DatabaseURL returns the vector store connection string.
func (c *AppConfig) DatabaseURL() string { return c.Env.Get(KeyDatabaseURL) }

// DocumentPath returns the configured source document path.
func (c *AppConfig) DocumentPath() string { return c.Env.Get(KeyPDFPath) }

// RetrievalKeys lists the keys the retrieval path needs for the configured store.
func (c *AppConfig) RetrievalKeys() []string {
	if c.VectorStore.Type == StorePGVector {
		return []string{KeyDatabaseURL, KeyCollectionName}
	}
	return []string{KeyCollectionName}
}

// IngestionKeys lists the keys the ingestion path needs.
func (c *AppConfig) IngestionKeys() []string {
	return append([]string{KeyPDFPath}, c.RetrievalKeys()...)
}

// RequireProvider fails unless at least one provider API key is set.
func (c *AppConfig) RequireProvider() error {
	return c.Env.RequireAny(KeyOpenAIAPIKey, KeyGoogleAPIKey)
}

// QueryTimeout bounds a single question round-trip. Zero means no limit.
func (c *AppConfig) QueryTimeout() time.Duration {
	return time.Duration(c.Retrieval.TimeoutSecs) * time.Second
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragchat", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Embedder: EmbedderConfig{
			OpenAI: OpenAIEmbedderConfig{
				BaseURL:     "https://api.openai.com/v1",
				Model:       "text-embedding-3-small",
				TimeoutSecs: 30,
				BatchSize:   32,
				MaxRetries:  3,
			},
			Google: GoogleEmbedderConfig{Model: "gemini-embedding-001", BatchSize: 32, MaxRetries: 3},
		},
		LLM: LLMConfig{
			OpenAI: OpenAILLMConfig{
				BaseURL:     "https://api.openai.com/v1",
				Model:       "gpt-4o-mini",
				TimeoutSecs: 120,
				MaxRetries:  3,
			},
			Google: GoogleLLMConfig{Model: "gemini-2.0-flash-exp", TimeoutSecs: 120, MaxRetries: 3},
		},
		Chunker:     ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 150},
		Retrieval:   RetrievalConfig{TopK: 10, TimeoutSecs: 60},
		VectorStore: VectorStoreConfig{Type: StorePGVector},
	}
}

func finish(cfg *AppConfig) (*AppConfig, error) {
	cfg.Env = FromOS()
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, &domain.ConfigurationError{Err: err}
	}
	return cfg, nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = StorePGVector
	}
	if cfg.VectorStore.Type == StoreQdrant {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.Host == "" {
			cfg.VectorStore.Qdrant.Host = "localhost"
		}
		if cfg.VectorStore.Qdrant.Port == 0 {
			cfg.VectorStore.Qdrant.Port = 6334
		}
	}
	if m := cfg.Env.Get(KeyOpenAIEmbeddingsModel); m != "" {
		cfg.Embedder.OpenAI.Model = m
	}
	if m := cfg.Env.Get(KeyGoogleEmbeddingsModel); m != "" {
		cfg.Embedder.Google.Model = m
	}
	if m := cfg.Env.Get(KeyOpenAILLMModel); m != "" {
		cfg.LLM.OpenAI.Model = m
	}
	if m := cfg.Env.Get(KeyGoogleLLMModel); m != "" {
		cfg.LLM.Google.Model = m
	}
}

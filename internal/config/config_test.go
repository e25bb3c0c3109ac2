package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func TestEnvRequire(t *testing.T) {
	t.Run("one key missing", func(t *testing.T) {
		env := Env{"X": "1"}
		err := env.Require("X", "Y")
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, []string{"Y"}, cfgErr.Keys)
	})

	t.Run("all set", func(t *testing.T) {
		env := Env{"X": "1", "Y": "2"}
		assert.NoError(t, env.Require("X", "Y"))
	})

	t.Run("blank counts as missing", func(t *testing.T) {
		env := Env{"X": "  ", "Y": ""}
		err := env.Require("X", "Y")
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, []string{"X", "Y"}, cfgErr.Keys)
	})
}

func TestEnvRequireAny(t *testing.T) {
	assert.NoError(t, Env{"B": "k"}.RequireAny("A", "B"))

	err := Env{}.RequireAny("A", "B")
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.True(t, cfgErr.AnyOf)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(KeyOpenAILLMModel, "")
	t.Setenv(KeyOpenAIEmbeddingsModel, "")
	t.Setenv(KeyGoogleLLMModel, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 150, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, StorePGVector, cfg.VectorStore.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.LLM.Google.Model)
	assert.Equal(t, 3, cfg.LLM.Google.MaxRetries)
	assert.Equal(t, 3, cfg.Embedder.Google.MaxRetries)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, 60*time.Second, cfg.QueryTimeout())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rag.yaml")
	yml := `
chunker:
  chunk_size: 500
  chunk_overlap: 50
vector_store:
  type: qdrant
llm:
  openai:
    model: from-yaml
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv(KeyOpenAILLMModel, "from-env")
	t.Setenv(KeyCollectionName, "docs")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "from-env", cfg.LLM.OpenAI.Model)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "localhost", cfg.VectorStore.Qdrant.Host)
	assert.Equal(t, 6334, cfg.VectorStore.Qdrant.Port)
	assert.Equal(t, "docs", cfg.Collection())
	assert.Equal(t, []string{KeyCollectionName}, cfg.RetrievalKeys())
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"overlap not below size": "chunker:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"unknown store":          "vector_store:\n  type: redis\n",
		"zero top k":             "retrieval:\n  top_k: -1\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rag.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
			_, err := Load(path)
			assert.ErrorContains(t, err, "invalid config")
			var cfgErr *domain.ConfigurationError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunker: [oops"), 0o644))

	_, err := Load(path)
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorContains(t, err, "parse "+path)
	assert.True(t, domain.IsFatal(err))
}

func TestRequiredKeySets(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, []string{KeyDatabaseURL, KeyCollectionName}, cfg.RetrievalKeys())
	assert.Equal(t, []string{KeyPDFPath, KeyDatabaseURL, KeyCollectionName}, cfg.IngestionKeys())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Chunker.ChunkSize = 800
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 800, loaded.Chunker.ChunkSize)
}

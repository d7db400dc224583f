package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "SESSION_TTL_SECONDS", "SESSION_SHAPE_POLICY", "CORPUS_PATH",
		"RAG_TOP_K", "RAG_MAX_SENTENCES", "RAG_MAX_CONTEXT_CHARS", "RAG_MAX_NEW_TOKENS",
		"CORS_ALLOW_ORIGINS", "CHAT_MAX_MESSAGE_CHARS", "EMBEDDER_BACKEND", "GENERATOR_BACKEND",
	} {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "reset", cfg.Session.ShapePolicy)
	assert.Equal(t, "news_articles.json", cfg.Corpus.Path)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, 3, cfg.RAG.MaxSentences)
	assert.Equal(t, 4000, cfg.RAG.MaxContextChars)
	assert.Equal(t, 512, cfg.RAG.MaxNewTokens)
	assert.Equal(t, DefaultSystemPrompt, cfg.RAG.SystemPrompt)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 4000, cfg.Server.MaxMessageChars)
	assert.Equal(t, "ollama", cfg.Embedder.Backend)
	assert.Equal(t, "ollama", cfg.Generator.Backend)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("SESSION_SHAPE_POLICY", "fail")
	t.Setenv("RAG_TOP_K", "5")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("EMBEDDER_BACKEND", "HASH")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("GENERATOR_TEMPERATURE", "0.7")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Session.TTL)
	assert.Equal(t, "fail", cfg.Session.ShapePolicy)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "hash", cfg.Embedder.Backend)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.InDelta(t, 0.7, cfg.Generator.Temperature, 1e-9)
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("RAG_TOP_K", "three")

	cfg := Load()

	assert.Equal(t, 3, cfg.RAG.TopK)
}

func TestLoad_SecretFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key")
	require.NoError(t, os.WriteFile(path, []byte("sk-test\n"), 0o600))
	_ = os.Unsetenv("OPENAI_API_KEY")
	t.Setenv("OPENAI_API_KEY_FILE", path)

	cfg := Load()

	assert.Equal(t, "sk-test", cfg.Embedder.OpenAIKey)
	assert.Equal(t, "sk-test", cfg.Generator.OpenAIKey)
}

func TestValidate(t *testing.T) {
	t.Setenv("EMBEDDER_BACKEND", "hash")
	t.Setenv("GENERATOR_BACKEND", "echo")

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Load().Validate())
	})

	t.Run("unknown shape policy", func(t *testing.T) {
		cfg := Load()
		cfg.Session.ShapePolicy = "ignore"
		assert.ErrorContains(t, cfg.Validate(), "SESSION_SHAPE_POLICY")
	})

	t.Run("openai without key", func(t *testing.T) {
		cfg := Load()
		cfg.Generator.Backend = "openai"
		cfg.Generator.OpenAIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "OPENAI_API_KEY")
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		cfg := Load()
		cfg.Session.TTL = 0
		assert.ErrorContains(t, cfg.Validate(), "SESSION_TTL_SECONDS")
	})
}

package di

import (
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag-chat/internal/infra/config"
)

func TestNewApplicationComponents_OfflineBackends(t *testing.T) {
	t.Setenv("EMBEDDER_BACKEND", "hash")
	t.Setenv("GENERATOR_BACKEND", "echo")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	cfg := config.Load()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	components, err := NewApplicationComponents(cfg, client, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(components.RateLimiter.Close)

	assert.Equal(t, "hash/384", components.Embedder.Version())
	assert.Equal(t, "echo", components.Generator.Version())
	assert.False(t, components.CorpusIndex.Ready())
	assert.NotNil(t, components.Handler)
	assert.NotNil(t, components.IndexBuilder)
}

func TestNewApplicationComponents_RejectsUnknownPolicy(t *testing.T) {
	t.Setenv("EMBEDDER_BACKEND", "hash")
	t.Setenv("GENERATOR_BACKEND", "echo")
	t.Setenv("SESSION_SHAPE_POLICY", "ignore")

	_, err := NewApplicationComponents(config.Load(), redis.NewClient(&redis.Options{}), slog.New(slog.NewJSONHandler(io.Discard, nil)))

	assert.Error(t, err)
}

func TestBackendSelection(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))

	emb, err := NewEmbedder(config.EmbedderConfig{Backend: "openai", Model: "text-embedding-3-small"}, log)
	require.NoError(t, err)
	assert.Equal(t, "openai/text-embedding-3-small", emb.Version())

	gen, err := NewGenerator(config.GeneratorConfig{Backend: "ollama", Model: "llama3.2"}, log)
	require.NoError(t, err)
	assert.Equal(t, "ollama/llama3.2", gen.Version())

	_, err = NewEmbedder(config.EmbedderConfig{Backend: "word2vec"}, log)
	assert.Error(t, err)
	_, err = NewGenerator(config.GeneratorConfig{Backend: "gpt2"}, log)
	assert.Error(t, err)
}

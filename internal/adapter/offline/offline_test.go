package offline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag-chat/internal/domain"
)

func TestHashEmbedder_DeterministicAndNormalised(t *testing.T) {
	e := NewHashEmbedder(64)

	first, err := e.Encode(context.Background(), []string{"Cats purr loudly", "cats PURR loudly!"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Len(t, first[0], 64)
	assert.Equal(t, first[0], first[1])
	assert.InDelta(t, 1.0, domain.VectorNorm(first[0]), 1e-6)

	again, err := e.Encode(context.Background(), []string{"Cats purr loudly"})
	require.NoError(t, err)
	assert.Equal(t, first[0], again[0])
}

func TestHashEmbedder_SharedWordsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	vectors, err := e.Encode(context.Background(), []string{"why do cats purr", "cats purr", "stocks fell"})
	require.NoError(t, err)

	related := domain.CosineSimilarity(vectors[0], vectors[1])
	unrelated := domain.CosineSimilarity(vectors[0], vectors[2])

	assert.Greater(t, related, unrelated)
}

func TestHashEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	vectors, err := NewHashEmbedder(8).Encode(context.Background(), []string{"  ...  "})
	require.NoError(t, err)
	assert.Zero(t, domain.VectorNorm(vectors[0]))
	assert.False(t, math.IsNaN(float64(vectors[0][0])))
}

func TestEchoGenerator(t *testing.T) {
	g := NewEchoGenerator(10)

	resp, err := g.Generate(context.Background(), "System.\n\nContext: Pets\ncats purr\n\nQuestion: why?\n\nAnswer:", 0)
	require.NoError(t, err)
	assert.Equal(t, "From the news: Pets\ncats ", resp.Text)
	assert.False(t, resp.Done)

	resp, err = g.Generate(context.Background(), "Context: \n\nQuestion: anything\n\nAnswer:", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text)
	assert.True(t, resp.Done)
}

package openai

import (
	"context"
	"fmt"
	"sort"
	"time"

	"news-rag-chat/internal/domain"
)

// Embedder calls POST /embeddings.
type Embedder struct {
	client
	model string
}

func NewEmbedder(baseURL, apiKey, model string, timeout time.Duration) *Embedder {
	return &Embedder{client: newClient(baseURL, apiKey, timeout), model: model}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var resp embeddingResponse
	if err := e.post(ctx, "/embeddings", embeddingRequest{Model: e.model, Input: texts}, &resp, domain.ErrRetrievalFailure); err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts: %w", len(resp.Data), len(texts), domain.ErrRetrievalFailure)
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func (e *Embedder) Version() string {
	return "openai/" + e.model
}

var _ domain.VectorEncoder = (*Embedder)(nil)

// Package offline provides model backends that need no network, for local
// runs and tests.
package offline

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"news-rag-chat/internal/domain"
)

// HashEmbedder maps each lowercase word to a signed bucket of a fixed-size
// vector and L2-normalises the result. Texts sharing words score high.
type HashEmbedder struct {
	dimensions int
}

func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (e *HashEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("hash embed: %w: %w", domain.ErrRetrievalFailure, err)
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	v := make([]float32, e.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}

	norm := domain.VectorNorm(v)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func (e *HashEmbedder) Version() string {
	return fmt.Sprintf("hash/%d", e.dimensions)
}

var _ domain.VectorEncoder = (*HashEmbedder)(nil)

// EchoGenerator answers with the leading part of the context it was given.
type EchoGenerator struct {
	maxChars int
}

func NewEchoGenerator(maxChars int) *EchoGenerator {
	if maxChars <= 0 {
		maxChars = 600
	}
	return &EchoGenerator{maxChars: maxChars}
}

const (
	contextMarker  = "Context: "
	questionMarker = "\n\nQuestion: "
)

func (g *EchoGenerator) Generate(ctx context.Context, prompt string, _ int) (*domain.LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("echo generate: %w: %w", domain.ErrGenerationFailure, err)
	}

	excerpt := prompt
	if i := strings.Index(excerpt, contextMarker); i >= 0 {
		excerpt = excerpt[i+len(contextMarker):]
	}
	if i := strings.Index(excerpt, questionMarker); i >= 0 {
		excerpt = excerpt[:i]
	}
	excerpt = strings.TrimSpace(excerpt)
	if excerpt == "" {
		return &domain.LLMResponse{Text: "I could not find related news for that question.", Done: true}, nil
	}

	runes := []rune(excerpt)
	done := len(runes) <= g.maxChars
	if !done {
		runes = runes[:g.maxChars]
	}
	return &domain.LLMResponse{Text: "From the news: " + string(runes), Done: done}, nil
}

func (g *EchoGenerator) Version() string {
	return "echo"
}

var _ domain.LLMClient = (*EchoGenerator)(nil)

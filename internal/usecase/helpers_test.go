package usecase_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"news-rag-chat/internal/adapter/repository"
	"news-rag-chat/internal/domain"
)

// keywordEncoder embeds text as term counts over a fixed vocabulary.
type keywordEncoder struct {
	vocab     []string
	calls     atomic.Int32
	failFirst atomic.Int32
	err       error
}

func newKeywordEncoder(vocab ...string) *keywordEncoder {
	return &keywordEncoder{vocab: vocab}
}

func (e *keywordEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	if e.failFirst.Add(-1) >= 0 {
		return nil, domain.ErrRetrievalFailure
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, len(e.vocab))
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			for j, term := range e.vocab {
				if w == term {
					v[j]++
				}
			}
		}
		out[i] = v
	}
	return out, nil
}

func (e *keywordEncoder) Version() string { return "keyword-test" }

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if fn, ok := args.Get(0).(func(context.Context, string, int) *domain.LLMResponse); ok {
		return fn(ctx, prompt, maxTokens), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *mockLLMClient) Version() string {
	return "mock"
}

func newTestSessionRepository(t *testing.T) domain.SessionRepository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return repository.NewRedisSessionRepository(client, time.Hour, domain.ShapePolicyReset, nil)
}

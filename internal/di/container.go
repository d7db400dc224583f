package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"news-rag-chat/internal/adapter/corpus"
	"news-rag-chat/internal/adapter/offline"
	"news-rag-chat/internal/adapter/openai"
	"news-rag-chat/internal/adapter/rag_augur"
	rag_http "news-rag-chat/internal/adapter/rag_http"
	"news-rag-chat/internal/adapter/repository"
	"news-rag-chat/internal/domain"
	"news-rag-chat/internal/infra/config"
	"news-rag-chat/internal/usecase"
	"news-rag-chat/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	SessionRepo domain.SessionRepository
	Embedder    domain.VectorEncoder
	Generator   domain.LLMClient

	CorpusIndex    usecase.CorpusIndex
	ChatUsecase    usecase.ChatUsecase
	SessionUsecase usecase.SessionUsecase

	IndexBuilder *worker.IndexBuilder
	Handler      *rag_http.Handler
	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter *rag_http.RateLimiter
}

// NewApplicationComponents wires all dependencies from config and the Redis client.
func NewApplicationComponents(cfg *config.Config, client *redis.Client, log *slog.Logger) (*ApplicationComponents, error) {
	policy, err := domain.ParseShapePolicy(cfg.Session.ShapePolicy)
	if err != nil {
		return nil, err
	}
	sessionRepo := repository.NewRedisSessionRepository(client, cfg.Session.TTL, policy, log)

	embedder, err := NewEmbedder(cfg.Embedder, log)
	if err != nil {
		return nil, err
	}
	generator, err := NewGenerator(cfg.Generator, log)
	if err != nil {
		return nil, err
	}

	index := usecase.NewCorpusIndex(embedder, usecase.CorpusIndexOptions{
		BatchSize:   cfg.Corpus.BuildBatchSize,
		Concurrency: cfg.Corpus.BuildConcurrency,
		CacheSize:   cfg.Cache.QuerySize,
		CacheTTL:    cfg.Cache.QueryTTL,
	}, log)

	chatUsecase := usecase.NewChatUsecase(
		index,
		usecase.NewContextAssembler(cfg.RAG.MaxContextChars),
		usecase.NewNewsPromptBuilder(cfg.RAG.SystemPrompt),
		generator,
		sessionRepo,
		usecase.ChatOptions{
			TopK:            cfg.RAG.TopK,
			MaxSentences:    cfg.RAG.MaxSentences,
			MaxNewTokens:    cfg.RAG.MaxNewTokens,
			MaxMessageChars: cfg.Server.MaxMessageChars,
		},
		log,
	)
	sessionUsecase := usecase.NewSessionUsecase(sessionRepo)

	corpusPath := cfg.Corpus.Path
	builder := worker.NewIndexBuilder(index, func(context.Context) ([]domain.Article, error) {
		return corpus.Load(corpusPath)
	}, log)

	var limiter *rag_http.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = rag_http.NewRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	log.Info("components_wired",
		slog.String("embedder", embedder.Version()),
		slog.String("generator", generator.Version()),
		slog.String("shape_policy", string(policy)),
		slog.Duration("session_ttl", cfg.Session.TTL))

	return &ApplicationComponents{
		SessionRepo:    sessionRepo,
		Embedder:       embedder,
		Generator:      generator,
		CorpusIndex:    index,
		ChatUsecase:    chatUsecase,
		SessionUsecase: sessionUsecase,
		IndexBuilder:   builder,
		Handler:        rag_http.NewHandler(chatUsecase, sessionUsecase, index, log),
		RateLimiter:    limiter,
	}, nil
}

// NewEmbedder selects the embedding backend.
func NewEmbedder(cfg config.EmbedderConfig, log *slog.Logger) (domain.VectorEncoder, error) {
	switch cfg.Backend {
	case "ollama":
		return rag_augur.NewOllamaEmbedder(cfg.OllamaURL, cfg.Model, cfg.Timeout, log), nil
	case "openai":
		return openai.NewEmbedder(cfg.OpenAIURL, cfg.OpenAIKey, cfg.Model, cfg.Timeout), nil
	case "hash":
		return offline.NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedder backend %q", cfg.Backend)
	}
}

// NewGenerator selects the generation backend.
func NewGenerator(cfg config.GeneratorConfig, log *slog.Logger) (domain.LLMClient, error) {
	switch cfg.Backend {
	case "ollama":
		return rag_augur.NewOllamaGenerator(cfg.OllamaURL, cfg.Model, cfg.Temperature, cfg.Timeout, log), nil
	case "openai":
		return openai.NewGenerator(cfg.OpenAIURL, cfg.OpenAIKey, cfg.Model, cfg.Temperature, cfg.Timeout), nil
	case "echo":
		return offline.NewEchoGenerator(0), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}

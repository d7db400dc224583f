package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"news-rag-chat/internal/domain"
	"news-rag-chat/internal/infra/logger"
	"news-rag-chat/internal/infra/metrics"
)

var tracer = otel.Tracer("news-rag-chat/usecase")

// Chat pipeline stages, used for spans, metrics and failure logs.
const (
	StageValidating     = "validating"
	StageRetrieving     = "retrieving"
	StageAssembling     = "assembling"
	StageGenerating     = "generating"
	StagePostProcessing = "postprocessing"
	StagePersisting     = "persisting"
)

// ChatInput is one user message addressed to a session.
type ChatInput struct {
	SessionID string
	Message   string
}

// ChatOutput carries the stored reply and the full history after persistence.
type ChatOutput struct {
	Reply   string
	History []domain.Turn
	Sources []domain.SimilarityHit
}

// ChatOptions are the retrieval and generation knobs of a chat call.
type ChatOptions struct {
	TopK            int
	MaxSentences    int
	MaxNewTokens    int
	MaxMessageChars int
}

// ChatUsecase answers a message with retrieved news context and records the exchange.
type ChatUsecase interface {
	Execute(ctx context.Context, input ChatInput) (*ChatOutput, error)
}

type chatUsecase struct {
	index     CorpusIndex
	assembler ContextAssembler
	prompts   PromptBuilder
	llm       domain.LLMClient
	sessions  domain.SessionRepository
	opts      ChatOptions
	logger    *slog.Logger
}

// NewChatUsecase wires together the components of one chat request.
func NewChatUsecase(
	index CorpusIndex,
	assembler ContextAssembler,
	prompts PromptBuilder,
	llm domain.LLMClient,
	sessions domain.SessionRepository,
	opts ChatOptions,
	logger *slog.Logger,
) ChatUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatUsecase{
		index:     index,
		assembler: assembler,
		prompts:   prompts,
		llm:       llm,
		sessions:  sessions,
		opts:      opts,
		logger:    logger,
	}
}

func (u *chatUsecase) Execute(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	ctx, span := tracer.Start(ctx, "chat.Execute")
	defer span.End()

	sessionID := strings.TrimSpace(input.SessionID)
	ctx = logger.WithSessionID(ctx, sessionID)
	span.SetAttributes(attribute.String(string(logger.SessionIDKey), sessionID))

	out, stage, err := u.execute(ctx, sessionID, input.Message)
	if err != nil {
		outcome := outcomeFor(err)
		metrics.RecordChat(outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)

		log := logger.FromContext(logger.WithChatStage(ctx, stage), u.logger)
		switch outcome {
		case "invalid":
			log.InfoContext(ctx, "chat_rejected", slog.String("error", err.Error()))
		case "not_ready":
			log.WarnContext(ctx, "chat_not_ready", slog.String("error", err.Error()))
		default:
			log.ErrorContext(ctx, "chat_failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	metrics.RecordChat("ok")
	logger.FromContext(ctx, u.logger).InfoContext(ctx, "chat_completed",
		slog.Int("sources", len(out.Sources)),
		slog.Int("history_length", len(out.History)))
	return out, nil
}

// execute returns the stage that failed alongside the error. The message is
// stored as sent; the trimmed form drives validation, retrieval and the prompt.
func (u *chatUsecase) execute(ctx context.Context, sessionID, message string) (*ChatOutput, string, error) {
	question := strings.TrimSpace(message)
	if err := u.validate(sessionID, question); err != nil {
		return nil, StageValidating, err
	}

	var hits []domain.SimilarityHit
	err := runStage(ctx, StageRetrieving, func(ctx context.Context) error {
		var err error
		hits, err = u.index.Query(ctx, question, u.opts.TopK)
		return err
	})
	if err != nil {
		return nil, StageRetrieving, err
	}

	var assembled AssembledContext
	_ = runStage(ctx, StageAssembling, func(ctx context.Context) error {
		assembled = u.assembler.Build(hits, u.opts.MaxSentences)
		return nil
	})
	if assembled.Dropped > 0 || assembled.Truncated {
		logger.FromContext(ctx, u.logger).DebugContext(ctx, "context_trimmed",
			slog.Int("included", assembled.Included),
			slog.Int("dropped", assembled.Dropped),
			slog.Bool("truncated", assembled.Truncated))
	}

	prompt := u.prompts.Build(PromptInput{Question: question, Context: assembled.Text})

	var raw *domain.LLMResponse
	err = runStage(ctx, StageGenerating, func(ctx context.Context) error {
		var err error
		raw, err = u.llm.Generate(ctx, prompt, u.opts.MaxNewTokens)
		if err != nil {
			return classifyGenerationError(err)
		}
		if raw == nil {
			return fmt.Errorf("generator returned no response: %w", domain.ErrGenerationFailure)
		}
		return nil
	})
	if err != nil {
		return nil, StageGenerating, err
	}
	if !raw.Done {
		logger.FromContext(ctx, u.logger).WarnContext(ctx, "generation_truncated",
			slog.Int("max_new_tokens", u.opts.MaxNewTokens))
	}

	var reply string
	err = runStage(ctx, StagePostProcessing, func(ctx context.Context) error {
		reply = NormalizeReply(raw.Text)
		if reply == "" {
			return fmt.Errorf("reply is empty after post-processing: %w", domain.ErrGenerationFailure)
		}
		return nil
	})
	if err != nil {
		return nil, StagePostProcessing, err
	}

	// the history comes back from the append itself, so nothing can fail
	// once the pair is stored
	var history []domain.Turn
	err = runStage(ctx, StagePersisting, func(ctx context.Context) error {
		var err error
		history, err = u.sessions.AppendPair(ctx, sessionID, domain.NewUserTurn(message), domain.NewAssistantTurn(reply))
		return err
	})
	if err != nil {
		return nil, StagePersisting, err
	}

	return &ChatOutput{Reply: reply, History: history, Sources: hits}, "", nil
}

func (u *chatUsecase) validate(sessionID, message string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionId is required: %w", domain.ErrInvalidRequest)
	}
	if message == "" {
		return fmt.Errorf("message is required: %w", domain.ErrInvalidRequest)
	}
	if u.opts.MaxMessageChars > 0 && utf8.RuneCountInString(message) > u.opts.MaxMessageChars {
		return fmt.Errorf("message exceeds %d characters: %w", u.opts.MaxMessageChars, domain.ErrInvalidRequest)
	}
	return nil
}

func runStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "chat."+stage)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.ObserveStage(stage, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage+" failed")
	}
	return err
}

func classifyGenerationError(err error) error {
	if errors.Is(err, domain.ErrNotReady) || errors.Is(err, domain.ErrGenerationFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, domain.ErrNotReady):
		return "not_ready"
	default:
		return "error"
	}
}

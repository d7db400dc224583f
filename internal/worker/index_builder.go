package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"news-rag-chat/internal/domain"
	"news-rag-chat/internal/usecase"
)

const (
	buildTimeout   = 30 * time.Minute
	initialBackoff = 1 * time.Second
	maxBackoff     = 5 * time.Minute
)

// ArticleLoader returns the corpus to index.
type ArticleLoader func(ctx context.Context) ([]domain.Article, error)

// IndexBuilder builds the corpus index in the background, retrying with
// exponential backoff until it succeeds or is stopped.
type IndexBuilder struct {
	index   usecase.CorpusIndex
	load    ArticleLoader
	logger  *slog.Logger
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	initial time.Duration
	max     time.Duration
}

func NewIndexBuilder(index usecase.CorpusIndex, load ArticleLoader, logger *slog.Logger) *IndexBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexBuilder{
		index:   index,
		load:    load,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		initial: initialBackoff,
		max:     maxBackoff,
	}
}

func (w *IndexBuilder) Start() {
	w.logger.Info("index_builder_started")
	go w.run()
}

// Stop aborts a pending retry and waits for the builder to exit.
func (w *IndexBuilder) Stop() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

// Done is closed once the builder has exited.
func (w *IndexBuilder) Done() <-chan struct{} {
	return w.done
}

func (w *IndexBuilder) run() {
	defer close(w.done)

	var backoff time.Duration
	for attempt := 1; ; attempt++ {
		err := w.buildOnce(attempt)
		if err == nil || errors.Is(err, usecase.ErrIndexAlreadyBuilt) {
			return
		}

		backoff = w.nextBackoff(backoff)
		w.logger.Warn("corpus_build_failed",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()))

		select {
		case <-w.stop:
			return
		case <-time.After(backoff):
		}
	}
}

func (w *IndexBuilder) buildOnce(attempt int) error {
	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()
	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	articles, err := w.load(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	w.logger.Info("corpus_build_started", slog.Int("attempt", attempt), slog.Int("articles", len(articles)))
	return w.index.Build(ctx, articles)
}

func (w *IndexBuilder) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return w.initial
	}
	next := current * 2
	if next > w.max {
		return w.max
	}
	return next
}

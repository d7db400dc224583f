package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"news-rag-chat/internal/domain"
	"news-rag-chat/internal/infra/metrics"
)

// ErrIndexAlreadyBuilt is returned when Build is called on an index that is
// built or currently building.
var ErrIndexAlreadyBuilt = errors.New("corpus index already built")

// CorpusIndex holds one embedding per corpus article and answers top-k
// similarity queries against them.
type CorpusIndex interface {
	// Build embeds every article once. Queries fail with domain.ErrNotReady until it succeeds.
	Build(ctx context.Context, articles []domain.Article) error
	// Query returns the k articles most similar to text, best first.
	Query(ctx context.Context, text string, k int) ([]domain.SimilarityHit, error)
	Ready() bool
	Size() int
}

// CorpusIndexOptions tunes build parallelism and the query-embedding cache.
type CorpusIndexOptions struct {
	BatchSize   int
	Concurrency int
	// CacheSize of 0 disables query-embedding memoisation.
	CacheSize int
	CacheTTL  time.Duration
}

const (
	indexIdle int32 = iota
	indexBuilding
	indexBuilt
)

// corpusSnapshot is immutable once published.
type corpusSnapshot struct {
	articles  []domain.Article
	vectors   [][]float32
	norms     []float64
	dimension int
}

type corpusIndex struct {
	encoder  domain.VectorEncoder
	opts     CorpusIndexOptions
	state    atomic.Int32
	snapshot atomic.Pointer[corpusSnapshot]
	cache    *expirable.LRU[string, []float32]
	logger   *slog.Logger
}

// NewCorpusIndex creates an empty, not-ready index.
func NewCorpusIndex(encoder domain.VectorEncoder, opts CorpusIndexOptions, logger *slog.Logger) CorpusIndex {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	idx := &corpusIndex{
		encoder: encoder,
		opts:    opts,
		logger:  logger,
	}
	if opts.CacheSize > 0 {
		idx.cache = expirable.NewLRU[string, []float32](opts.CacheSize, nil, opts.CacheTTL)
	}
	return idx
}

func (x *corpusIndex) Build(ctx context.Context, articles []domain.Article) error {
	if !x.state.CompareAndSwap(indexIdle, indexBuilding) {
		return ErrIndexAlreadyBuilt
	}

	start := time.Now()
	snap, err := x.embedAll(ctx, articles)
	if err != nil {
		// a failed build can be retried
		x.state.Store(indexIdle)
		metrics.SetCorpus(false, 0)
		return err
	}

	x.snapshot.Store(snap)
	x.state.Store(indexBuilt)
	metrics.SetCorpus(true, len(snap.articles))

	x.logger.InfoContext(ctx, "corpus_index_built",
		slog.Int("articles", len(snap.articles)),
		slog.Int("dimension", snap.dimension),
		slog.String("encoder", x.encoder.Version()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (x *corpusIndex) embedAll(ctx context.Context, articles []domain.Article) (*corpusSnapshot, error) {
	snap := &corpusSnapshot{
		articles: slices.Clone(articles),
		vectors:  make([][]float32, len(articles)),
		norms:    make([]float64, len(articles)),
	}
	if len(articles) == 0 {
		return snap, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.Concurrency)

	for start := 0; start < len(articles); start += x.opts.BatchSize {
		end := min(start+x.opts.BatchSize, len(articles))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, a := range articles[start:end] {
				texts = append(texts, a.EmbeddingText())
			}

			vectors, err := x.encoder.Encode(gctx, texts)
			if err != nil {
				return classifyRetrievalError(fmt.Errorf("encode articles %d-%d: %w", start, end-1, err))
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("encode articles %d-%d: got %d vectors for %d texts: %w",
					start, end-1, len(vectors), len(texts), domain.ErrRetrievalFailure)
			}
			// each batch owns a disjoint range of the slices
			for i, v := range vectors {
				snap.vectors[start+i] = v
				snap.norms[start+i] = domain.VectorNorm(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.dimension = len(snap.vectors[0])
	for i, v := range snap.vectors {
		if len(v) != snap.dimension {
			return nil, fmt.Errorf("article %d has dimension %d, expected %d: %w",
				i, len(v), snap.dimension, domain.ErrRetrievalFailure)
		}
	}
	return snap, nil
}

func (x *corpusIndex) Query(ctx context.Context, text string, k int) ([]domain.SimilarityHit, error) {
	snap := x.snapshot.Load()
	if snap == nil {
		return nil, fmt.Errorf("corpus index is building: %w", domain.ErrNotReady)
	}
	if k <= 0 || len(snap.articles) == 0 {
		return []domain.SimilarityHit{}, nil
	}

	query, err := x.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(query) != snap.dimension {
		return nil, fmt.Errorf("query dimension %d does not match corpus dimension %d: %w",
			len(query), snap.dimension, domain.ErrRetrievalFailure)
	}

	queryNorm := domain.VectorNorm(query)
	scores := make([]float64, len(snap.vectors))
	order := make([]int, len(snap.vectors))
	for i, v := range snap.vectors {
		scores[i] = domain.CosineWithNorms(query, v, queryNorm, snap.norms[i])
		order[i] = i
	}
	// stable: equal scores keep ingestion order
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})

	k = min(k, len(order))
	hits := make([]domain.SimilarityHit, k)
	for rank, i := range order[:k] {
		hits[rank] = domain.SimilarityHit{
			Article: snap.articles[i],
			Score:   float32(scores[i]),
			Rank:    rank + 1,
		}
	}
	return hits, nil
}

func (x *corpusIndex) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if x.cache != nil {
		if v, ok := x.cache.Get(text); ok {
			return v, nil
		}
	}

	vectors, err := x.encoder.Encode(ctx, []string{text})
	if err != nil {
		return nil, classifyRetrievalError(fmt.Errorf("encode query: %w", err))
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("encode query: got %d vectors: %w", len(vectors), domain.ErrRetrievalFailure)
	}

	if x.cache != nil {
		x.cache.Add(text, vectors[0])
	}
	return vectors[0], nil
}

func (x *corpusIndex) Ready() bool {
	return x.snapshot.Load() != nil
}

func (x *corpusIndex) Size() int {
	if snap := x.snapshot.Load(); snap != nil {
		return len(snap.articles)
	}
	return 0
}

// classifyRetrievalError makes sure an encoder error carries a retrieval
// sentinel, keeping NotReady distinct.
func classifyRetrievalError(err error) error {
	if errors.Is(err, domain.ErrNotReady) || errors.Is(err, domain.ErrRetrievalFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, err)
}

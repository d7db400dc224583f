package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"news-rag-chat/internal/adapter/corpus"
)

const (
	maxPageBytes = 4 << 20
	userAgent    = "news-rag-chat-ingest/1.0"
)

// Pipeline turns a feed into corpus records by fetching each linked page.
type Pipeline struct {
	Client      *http.Client
	Limiter     *HostRateLimiter
	Concurrency int
	Logger      *slog.Logger
}

// Stats summarises one pipeline run.
type Stats struct {
	FeedItems     int
	Extracted     int
	FromSummaries int
	Skipped       int
}

// Run collects up to limit items from feedURL. Items whose page cannot be
// fetched fall back to their feed summary; items with no text are skipped.
func (p *Pipeline) Run(ctx context.Context, feedURL string, limit int) ([]corpus.Record, Stats, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	feed, err := CollectFeed(ctx, feedURL, p.Client, p.Limiter)
	if err != nil {
		return nil, Stats{}, err
	}
	log.InfoContext(ctx, "feed_collected", slog.String("title", feed.Title), slog.Int("items", len(feed.Items)))

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	type result struct {
		record  corpus.Record
		fromRSS bool
		ok      bool
	}
	results := make([]result, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Concurrency, 1))
	for i, item := range items {
		g.Go(func() error {
			summary := PlainText(firstNonEmpty(item.Description, item.Content))
			content := ""
			if item.Link != "" {
				page, err := p.fetchPage(gctx, item.Link)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					log.WarnContext(gctx, "article_fetch_failed", slog.String("url", item.Link), slog.String("error", err.Error()))
				} else {
					content = ExtractArticleText(page)
				}
			}

			fromRSS := false
			if content == "" {
				content = summary
				fromRSS = true
			}
			title := PlainText(item.Title)
			if title == "" && content == "" {
				return nil
			}

			results[i] = result{
				record: corpus.Record{
					ID:          corpus.ArticleID(item.Link, title, content),
					Title:       title,
					Content:     content,
					URL:         item.Link,
					PublishedAt: publishedAt(item),
				},
				fromRSS: fromRSS,
				ok:      true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{FeedItems: len(feed.Items)}
	records := make([]corpus.Record, 0, len(results))
	for _, r := range results {
		if !r.ok {
			stats.Skipped++
			continue
		}
		if r.fromRSS {
			stats.FromSummaries++
		} else {
			stats.Extracted++
		}
		records = append(records, r.record)
	}
	return records, stats, nil
}

func (p *Pipeline) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if p.Limiter != nil {
		if err := p.Limiter.WaitForHost(ctx, pageURL); err != nil {
			return "", fmt.Errorf("rate limiting failed: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func publishedAt(item *gofeed.Item) string {
	if item.Published != "" {
		return item.Published
	}
	return item.Updated
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

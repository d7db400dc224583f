package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"
)

// CollectFeed fetches and parses one RSS or Atom feed.
func CollectFeed(ctx context.Context, feedURL string, client *http.Client, limiter *HostRateLimiter) (*gofeed.Feed, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme: %s (must be http or https)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("missing host in URL")
	}

	if limiter != nil {
		if err := limiter.WaitForHost(ctx, feedURL); err != nil {
			return nil, fmt.Errorf("rate limiting failed: %w", err)
		}
	}

	fp := gofeed.NewParser()
	if client != nil {
		fp.Client = client
	}
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	return feed, nil
}

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"news-rag-chat/internal/adapter/corpus"
	"news-rag-chat/internal/infra/httpclient"
	"news-rag-chat/internal/ingest"
)

type runOptions struct {
	feedURL     string
	limit       int
	outPath     string
	concurrency int
	hostDelay   time.Duration
	timeout     time.Duration
}

func newRunCmd(newLogger func() *slog.Logger) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch a feed and write the corpus file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			log := newLogger()

			pipeline := &ingest.Pipeline{
				Client:      httpclient.NewPooledClient(opts.timeout),
				Limiter:     ingest.NewHostRateLimiter(opts.hostDelay),
				Concurrency: opts.concurrency,
				Logger:      log,
			}

			start := time.Now()
			records, stats, err := pipeline.Run(cmd.Context(), opts.feedURL, opts.limit)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", opts.feedURL, err)
			}
			if err := corpus.Write(opts.outPath, records); err != nil {
				return err
			}

			log.Info("corpus_written",
				slog.String("path", opts.outPath),
				slog.Int("articles", len(records)),
				slog.Int("extracted", stats.Extracted),
				slog.Int("from_summaries", stats.FromSummaries),
				slog.Int("skipped", stats.Skipped),
				slog.Duration("duration", time.Since(start)))
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d articles to %s\n", len(records), opts.outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.feedURL, "feed", defaultFeedURL, "RSS or Atom feed URL")
	cmd.Flags().IntVar(&opts.limit, "limit", defaultLimit, "maximum number of articles (0 for all)")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", defaultOutPath, "corpus file to write")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "article pages fetched in parallel")
	cmd.Flags().DurationVar(&opts.hostDelay, "host-delay", time.Second, "minimum delay between requests to one host")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP timeout per request")
	return cmd
}

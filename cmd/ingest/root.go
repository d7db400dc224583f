package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const (
	defaultFeedURL = "https://rss.nytimes.com/services/xml/rss/nyt/World.xml"
	defaultOutPath = "news_articles.json"
	defaultLimit   = 50
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "ingest",
		Short: "Build the news corpus used by the chat server",
		Long: `ingest fetches an RSS feed, extracts the body of each linked article and
writes the result as the corpus file read by the chat server at startup.

Example usage:
  ingest run                                   # NYT World feed, 50 articles
  ingest run --feed https://example.com/rss --limit 20 --out corpus.json
  ingest inspect --path news_articles.json     # corpus statistics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	newLogger := func() *slog.Logger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newRunCmd(newLogger), newInspectCmd())
	return root
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"news-rag-chat/internal/adapter/corpus"
	"news-rag-chat/internal/domain"
)

type corpusStats struct {
	Path          string `json:"path"`
	Articles      int    `json:"articles"`
	Sentences     int    `json:"sentences"`
	WithURL       int    `json:"with_url"`
	EmptyContent  int    `json:"empty_content"`
	AvgContentLen int    `json:"avg_content_chars"`
}

func newInspectCmd() *cobra.Command {
	var (
		path       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print statistics for a corpus file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			articles, err := corpus.Load(path)
			if err != nil {
				return err
			}
			stats := summarize(path, articles)

			w := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			fmt.Fprintf(w, "corpus %s\n", stats.Path)
			fmt.Fprintf(w, "  articles:       %d\n", stats.Articles)
			fmt.Fprintf(w, "  sentences:      %d\n", stats.Sentences)
			fmt.Fprintf(w, "  with url:       %d\n", stats.WithURL)
			fmt.Fprintf(w, "  empty content:  %d\n", stats.EmptyContent)
			fmt.Fprintf(w, "  avg content:    %d chars\n", stats.AvgContentLen)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", defaultOutPath, "corpus file to read")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func summarize(path string, articles []domain.Article) corpusStats {
	stats := corpusStats{Path: path, Articles: len(articles)}
	total := 0
	for _, a := range articles {
		if a.Content == "" {
			stats.EmptyContent++
		} else {
			stats.Sentences += strings.Count(a.Content, domain.SentenceBoundary) + 1
		}
		if a.URL != "" {
			stats.WithURL++
		}
		total += len(a.Content)
	}
	if len(articles) > 0 {
		stats.AvgContentLen = total / len(articles)
	}
	return stats
}

// Package corpus reads and writes the news_articles.json corpus file.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"news-rag-chat/internal/domain"
)

// articleNamespace seeds deterministic ids for records that carry none.
var articleNamespace = uuid.MustParse("6f1c3b0e-8d7a-4b59-9a77-3e2f0c1d5b84")

// Record is the on-disk shape of one article.
type Record struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// ArticleID returns a stable id derived from the url, or from title and
// content when the url is missing.
func ArticleID(url, title, content string) string {
	key := strings.TrimSpace(url)
	if key == "" {
		key = title + "\n" + content
	}
	return uuid.NewSHA1(articleNamespace, []byte(key)).String()
}

// Load reads the corpus file. Records without title and content are skipped.
func Load(path string) ([]domain.Article, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	articles := make([]domain.Article, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Content) == "" {
			continue
		}
		id := r.ID
		if id == "" {
			id = ArticleID(r.URL, r.Title, r.Content)
		}
		articles = append(articles, domain.Article{
			ID:          id,
			Title:       strings.TrimSpace(r.Title),
			Content:     strings.TrimSpace(r.Content),
			URL:         r.URL,
			PublishedAt: r.PublishedAt,
		})
	}
	return articles, nil
}

// Write replaces the corpus file atomically.
func Write(path string, records []Record) (err error) {
	if records == nil {
		records = []Record{}
	}
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpus-*.json")
	if err != nil {
		return fmt.Errorf("create temp corpus: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(append(payload, '\n')); err != nil {
		return errors.Join(fmt.Errorf("write corpus: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace corpus %s: %w", path, err)
	}
	return nil
}

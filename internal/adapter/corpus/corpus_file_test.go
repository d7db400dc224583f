package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.json")
	records := []Record{
		{Title: "Rates rise", Content: "The bank raised rates.", URL: "https://news.test/rates", PublishedAt: "Mon, 01 Jan 2024 10:00:00 GMT"},
		{ID: "fixed", Title: "Storm", Content: "A storm hit.", URL: "https://news.test/storm"},
		{Title: "  ", Content: ""},
	}
	require.NoError(t, Write(path, records))

	articles, err := Load(path)

	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, ArticleID("https://news.test/rates", "", ""), articles[0].ID)
	assert.Equal(t, "Rates rise", articles[0].Title)
	assert.Equal(t, "Mon, 01 Jan 2024 10:00:00 GMT", articles[0].PublishedAt)
	assert.Equal(t, "fixed", articles[1].ID)
}

func TestLoad_OriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.json")
	raw := `[{"title":"A","content":"cats purr","url":"","publishedAt":""}]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	articles, err := Load(path)

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, ArticleID("", "A", "cats purr"), articles[0].ID)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestArticleIDIsStable(t *testing.T) {
	assert.Equal(t, ArticleID("https://a.test/x", "t", "c"), ArticleID(" https://a.test/x ", "other", "other"))
	assert.NotEqual(t, ArticleID("https://a.test/x", "", ""), ArticleID("https://a.test/y", "", ""))
}

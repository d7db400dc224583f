package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag-chat/internal/adapter/corpus"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news_articles.json")
	require.NoError(t, corpus.Write(path, []corpus.Record{
		{Title: "Rates", Content: "Rates rose. Stocks fell.", URL: "https://news.test/rates"},
		{Title: "Only a title"},
	}))

	out, err := execute(t, "inspect", "--path", path, "--json")
	require.NoError(t, err)

	var stats corpusStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, corpusStats{
		Path:          path,
		Articles:      2,
		Sentences:     2,
		WithURL:       1,
		EmptyContent:  1,
		AvgContentLen: 12,
	}, stats)

	out, err = execute(t, "inspect", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "articles:       2")
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := execute(t, "inspect", "--path", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			_, _ = fmt.Fprintf(w, `<rss version="2.0"><channel><title>t</title>
<item><title>Story</title><link>%s/gone</link><description>Short summary.</description></item>
</channel></rss>`, srv.URL)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "corpus.json")
	stdout, err := execute(t, "run", "--feed", srv.URL+"/feed.xml", "--out", out, "--host-delay", "1ms")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved 1 articles")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var records []corpus.Record
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Short summary.", records[0].Content)
}

func TestRun_RejectsNegativeLimit(t *testing.T) {
	_, err := execute(t, "run", "--limit", "-1")
	assert.Error(t, err)
}

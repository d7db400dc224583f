package ingest

import (
	"html"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// minArticleChars is the shortest extracted body accepted as an article.
const minArticleChars = 80

var strictPolicy = bluemonday.StrictPolicy()

// ExtractArticleText returns the readable body of an article page. The
// <article> element wins; otherwise readability picks the main content.
// Empty means nothing usable was found.
func ExtractArticleText(page string) string {
	if text := extractArticleElement(page); len(text) >= minArticleChars {
		return text
	}
	if text := extractWithReadability(page); len(text) >= minArticleChars {
		return text
	}
	return ""
}

func extractArticleElement(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return ""
	}
	article.Find("script, style, noscript, nav, aside, figure, footer, form").Remove()

	var paragraphs []string
	article.Find("p, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeWhitespace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return normalizeWhitespace(article.Text())
	}
	return joinParagraphs(paragraphs)
}

func extractWithReadability(page string) string {
	article, err := readability.FromReader(strings.NewReader(page), nil)
	if err != nil {
		return ""
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}

	var paragraphs []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if text := normalizeWhitespace(line); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return joinParagraphs(paragraphs)
}

// PlainText strips all markup from an HTML fragment such as an RSS description.
func PlainText(fragment string) string {
	return normalizeWhitespace(html.UnescapeString(strictPolicy.Sanitize(fragment)))
}

// joinParagraphs keeps paragraph boundaries as sentence boundaries.
func joinParagraphs(paragraphs []string) string {
	var b strings.Builder
	for i, p := range paragraphs {
		if i > 0 {
			if strings.HasSuffix(paragraphs[i-1], ".") {
				b.WriteString(" ")
			} else {
				b.WriteString(". ")
			}
		}
		b.WriteString(p)
	}
	return b.String()
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package usecase

import (
	"strings"

	"news-rag-chat/internal/domain"
)

const sectionSeparator = "\n\n"

// AssembledContext is the bounded prompt context built from ranked hits.
type AssembledContext struct {
	Text string
	// Included counts the sections that made it into Text, in rank order.
	Included int
	Dropped  int
	// Truncated is set when the top section alone had to be cut to fit.
	Truncated bool
}

// ContextAssembler turns similarity hits into prompt context.
type ContextAssembler interface {
	Build(hits []domain.SimilarityHit, maxSentencesPerArticle int) AssembledContext
}

type contextAssembler struct {
	maxChars int
}

// NewContextAssembler caps the assembled text at maxChars runes; maxChars <= 0 means unbounded.
func NewContextAssembler(maxChars int) ContextAssembler {
	return &contextAssembler{maxChars: maxChars}
}

func (a *contextAssembler) Build(hits []domain.SimilarityHit, maxSentencesPerArticle int) AssembledContext {
	sections := make([]string, 0, len(hits))
	for _, hit := range hits {
		sections = append(sections, formatSection(hit.Article, maxSentencesPerArticle))
	}
	if len(sections) == 0 {
		return AssembledContext{}
	}

	if a.maxChars <= 0 {
		return AssembledContext{
			Text:     strings.Join(sections, sectionSeparator),
			Included: len(sections),
		}
	}

	// drop from the lowest rank until the joined text fits
	total := 0
	kept := 0
	for i, s := range sections {
		size := runeLen(s)
		if i > 0 {
			size += runeLen(sectionSeparator)
		}
		if total+size > a.maxChars {
			break
		}
		total += size
		kept++
	}

	if kept == 0 {
		return AssembledContext{
			Text:      truncateRunes(sections[0], a.maxChars),
			Included:  1,
			Dropped:   len(sections) - 1,
			Truncated: true,
		}
	}

	return AssembledContext{
		Text:     strings.Join(sections[:kept], sectionSeparator),
		Included: kept,
		Dropped:  len(sections) - kept,
	}
}

func formatSection(article domain.Article, maxSentences int) string {
	body := domain.FirstSentences(article.Content, maxSentences)
	title := strings.TrimSpace(article.Title)
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n" + body
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

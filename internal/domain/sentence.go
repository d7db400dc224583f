package domain

import "strings"

// SentenceBoundary separates sentences in article content.
const SentenceBoundary = ". "

// FirstSentences returns the first n sentences of text, keeping their periods.
// n <= 0 returns the whole text trimmed.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || text == "" {
		return text
	}

	sentences := strings.SplitAfter(text, SentenceBoundary)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	return strings.TrimSpace(strings.Join(sentences, ""))
}

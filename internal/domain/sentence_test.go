package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"news-rag-chat/internal/domain"
)

func TestFirstSentences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		n        int
		expected string
	}{
		{name: "first of two", text: "Cats are mammals. They purr.", n: 1, expected: "Cats are mammals."},
		{name: "all when n exceeds", text: "Cats are mammals. They purr.", n: 5, expected: "Cats are mammals. They purr."},
		{name: "exactly n", text: "One. Two. Three.", n: 2, expected: "One. Two."},
		{name: "no boundary", text: "A single line without a break", n: 1, expected: "A single line without a break"},
		{name: "period without space is not a boundary", text: "Version 2.5 shipped. Then it broke.", n: 1, expected: "Version 2.5 shipped."},
		{name: "zero means whole text", text: "  One. Two.  ", n: 0, expected: "One. Two."},
		{name: "empty", text: "", n: 3, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.FirstSentences(tt.text, tt.n))
		})
	}
}

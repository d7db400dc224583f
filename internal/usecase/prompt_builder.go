package usecase

import (
	"strings"
)

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Question string
	Context  string
}

// PromptBuilder renders the single prompt string sent to the generator.
type PromptBuilder interface {
	Build(input PromptInput) string
}

// NewsPromptBuilder frames the question with retrieved news context under a fixed system instruction.
type NewsPromptBuilder struct {
	systemPrompt string
}

// NewNewsPromptBuilder creates a prompt builder with the given system instruction.
func NewNewsPromptBuilder(systemPrompt string) PromptBuilder {
	return &NewsPromptBuilder{systemPrompt: strings.TrimSpace(systemPrompt)}
}

func (b *NewsPromptBuilder) Build(input PromptInput) string {
	var sb strings.Builder
	if b.systemPrompt != "" {
		sb.WriteString(b.systemPrompt)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Context: ")
	sb.WriteString(strings.TrimSpace(input.Context))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(strings.TrimSpace(input.Question))
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}

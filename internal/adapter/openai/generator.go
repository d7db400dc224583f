package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"news-rag-chat/internal/domain"
)

// Generator calls POST /chat/completions with the prompt as a single user message.
type Generator struct {
	client
	model       string
	temperature float64
}

func NewGenerator(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *Generator {
	return &Generator{
		client:      newClient(baseURL, apiKey, timeout),
		model:       model,
		temperature: temperature,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	req := completionRequest{
		Model:       g.model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	var resp completionResponse
	if err := g.post(ctx, "/chat/completions", req, &resp, domain.ErrGenerationFailure); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("completion has no choices: %w", domain.ErrGenerationFailure)
	}

	choice := resp.Choices[0]
	return &domain.LLMResponse{
		Text: strings.TrimSpace(choice.Message.Content),
		Done: choice.FinishReason != "length",
	}, nil
}

func (g *Generator) Version() string {
	return "openai/" + g.model
}

var _ domain.LLMClient = (*Generator)(nil)

package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/deusflow/ainews/internal/logger"
)

const (
	GroqBaseURL = "https://api.groq.com/openai/v1"
	GroqModel   = "llama-3.1-8b-instant"
)

// OpenAI summarizes through any OpenAI-compatible chat completion API,
// Groq included.
type OpenAI struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration, l *slog.Logger) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger.OrDefault(l),
	}
}

// NewGroq is NewOpenAI pointed at Groq's endpoint.
func NewGroq(apiKey, model string, timeout time.Duration, l *slog.Logger) *OpenAI {
	if model == "" {
		model = GroqModel
	}
	return NewOpenAI(apiKey, GroqBaseURL, model, timeout, l)
}

func (o *OpenAI) Summarize(ctx context.Context, text, category string) (string, error) {
	prompt, p := userPrompt(text, category)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: Temperature,
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%s: %w: %v", o.model, ErrRateLimited, err)
		}
		return "", fmt.Errorf("chat completion (%s): %w", o.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptySummary
	}

	o.logger.Debug("Summary generated", "model", o.model, "category", category, "tokens", resp.Usage.TotalTokens)
	return Clean(resp.Choices[0].Message.Content)
}

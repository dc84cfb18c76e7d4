package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"github.com/deusflow/ainews/internal/logger"
)

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "llama3.1"
)

// Ollama summarizes with a locally served model.
type Ollama struct {
	client *ollama.Client
	model  string
	logger *slog.Logger
}

func NewOllama(host, model string, timeout time.Duration, l *slog.Logger) (*Ollama, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}
	return &Ollama{
		client: ollama.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
		logger: logger.OrDefault(l),
	}, nil
}

func (o *Ollama) Summarize(ctx context.Context, text, category string) (string, error) {
	prompt, p := userPrompt(text, category)
	stream := false

	var response strings.Builder
	err := o.client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.model,
		System: SystemPrompt,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": Temperature,
			"num_predict": p.MaxTokens,
		},
	}, func(res ollama.GenerateResponse) error {
		response.WriteString(res.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate (%s): %w", o.model, err)
	}

	o.logger.Debug("Summary generated", "model", o.model, "category", category)
	return Clean(response.String())
}

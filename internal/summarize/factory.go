package summarize

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/ainews/internal/cache"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/ratelimit"
)

// Closer releases whatever a summarizer built by FromConfig holds open.
type Closer func() error

// FromConfig builds the configured backend wrapped in the request
// budget and the summary cache. SUMMARIZER=none yields a nil Summarizer.
func FromConfig(ctx context.Context, cfg *config.Config, l *slog.Logger) (Summarizer, Closer, error) {
	var (
		base    Summarizer
		closeFn Closer = func() error { return nil }
	)

	switch cfg.Summarizer {
	case "groq":
		base = NewGroq(cfg.GroqAPIKey, cfg.SummaryModel, cfg.SummaryTimeout, l)
	case "openai":
		model := cfg.SummaryModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		base = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, model, cfg.SummaryTimeout, l)
	case "gemini":
		g, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.SummaryModel, l)
		if err != nil {
			return nil, nil, err
		}
		base, closeFn = g, g.Close
	case "ollama":
		o, err := NewOllama(cfg.OllamaHost, cfg.SummaryModel, cfg.SummaryTimeout, l)
		if err != nil {
			return nil, nil, err
		}
		base = o
	default:
		return nil, closeFn, nil
	}

	limiter := ratelimit.New(map[string]int{cfg.Summarizer: cfg.MaxSummaryRequests}, 0, l)
	c := cache.New[string](time.Hour)
	s := NewCached(NewLimited(base, limiter, cfg.Summarizer), c, cfg.SummaryCacheTTL).OnHit(limiter.RecordCacheHit)

	return s, func() error {
		c.Close()
		return closeFn()
	}, nil
}

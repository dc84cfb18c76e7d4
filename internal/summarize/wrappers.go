package summarize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deusflow/ainews/internal/cache"
	"github.com/deusflow/ainews/internal/ratelimit"
)

// Cached memoizes summaries by category and text.
type Cached struct {
	next  Summarizer
	cache *cache.Cache[string]
	ttl   time.Duration
	hits  func()
}

func NewCached(next Summarizer, c *cache.Cache[string], ttl time.Duration) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl}
}

// OnHit registers a callback run on every cache hit.
func (c *Cached) OnHit(fn func()) *Cached {
	c.hits = fn
	return c
}

func (c *Cached) Summarize(ctx context.Context, text, category string) (string, error) {
	key := cache.Key(category, text)
	if s, ok := c.cache.Get(key); ok {
		if c.hits != nil {
			c.hits()
		}
		return s, nil
	}

	s, err := c.next.Summarize(ctx, text, category)
	if err != nil {
		return "", err
	}
	c.cache.Set(key, s, c.ttl)
	return s, nil
}

// Limited refuses calls once the provider's budget is spent.
type Limited struct {
	next     Summarizer
	limiter  *ratelimit.Limiter
	provider string
}

func NewLimited(next Summarizer, limiter *ratelimit.Limiter, provider string) *Limited {
	return &Limited{next: next, limiter: limiter, provider: provider}
}

func (l *Limited) Summarize(ctx context.Context, text, category string) (string, error) {
	if err := l.limiter.Use(l.provider); err != nil {
		if errors.Is(err, ratelimit.ErrLimitExceeded) {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", err
	}
	return l.next.Summarize(ctx, text, category)
}

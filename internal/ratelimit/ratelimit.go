// Package ratelimit keeps daily request budgets for AI providers.
package ratelimit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/deusflow/ainews/internal/logger"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limiter counts requests per provider against per-provider and total
// budgets. A budget of zero is unlimited. Counters reset every window.
type Limiter struct {
	mu        sync.Mutex
	limits    map[string]int
	counts    map[string]int
	maxTotal  int
	total     int
	window    time.Duration
	resetTime time.Time
	now       func() time.Time
	logger    *slog.Logger

	cacheHits   int
	cacheMisses int
}

func New(limits map[string]int, maxTotal int, l *slog.Logger) *Limiter {
	rl := &Limiter{
		limits:   make(map[string]int, len(limits)),
		counts:   make(map[string]int),
		maxTotal: maxTotal,
		window:   24 * time.Hour,
		now:      time.Now,
		logger:   logger.OrDefault(l),
	}
	for k, v := range limits {
		rl.limits[k] = v
	}
	rl.resetTime = rl.now().Add(rl.window)
	return rl
}

// Allow reports whether provider may make another request.
func (rl *Limiter) Allow(provider string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()
	return rl.check(provider) == nil
}

// Use takes one request from the provider's budget.
func (rl *Limiter) Use(provider string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()
	if err := rl.check(provider); err != nil {
		rl.logger.Warn("AI rate limit reached", "provider", provider, "used", rl.counts[provider], "total", rl.total)
		return err
	}

	rl.counts[provider]++
	rl.total++
	rl.cacheMisses++
	rl.logger.Debug("AI usage", "provider", provider, "used", rl.counts[provider], "limit", rl.limits[provider], "total", rl.total)
	return nil
}

func (rl *Limiter) RecordCacheHit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.cacheHits++
}

func (rl *Limiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":   rl.total,
		"total_limit":  rl.maxTotal,
		"cache_hits":   rl.cacheHits,
		"cache_misses": rl.cacheMisses,
		"reset_time":   rl.resetTime,
	}
	for p, n := range rl.counts {
		stats[p+"_used"] = n
	}
	for p, n := range rl.limits {
		stats[p+"_limit"] = n
	}
	return stats
}

func (rl *Limiter) check(provider string) error {
	if limit := rl.limits[provider]; limit > 0 && rl.counts[provider] >= limit {
		return fmt.Errorf("%s: %w (%d/%d)", provider, ErrLimitExceeded, rl.counts[provider], limit)
	}
	if rl.maxTotal > 0 && rl.total >= rl.maxTotal {
		return fmt.Errorf("total: %w (%d/%d)", ErrLimitExceeded, rl.total, rl.maxTotal)
	}
	return nil
}

// checkReset resets counters once the window has passed
func (rl *Limiter) checkReset() {
	now := rl.now()
	if !now.After(rl.resetTime) {
		return
	}
	rl.logger.Info("Resetting AI rate limiter counters", "total_used", rl.total, "cache_hits", rl.cacheHits)
	rl.counts = make(map[string]int)
	rl.total, rl.cacheHits, rl.cacheMisses = 0, 0, 0
	rl.resetTime = now.Add(rl.window)
}

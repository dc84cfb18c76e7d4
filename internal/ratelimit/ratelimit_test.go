package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
)

func TestLimiter_PerProvider(t *testing.T) {
	rl := New(map[string]int{"groq": 2}, 0, logger.Discard())

	require.NoError(t, rl.Use("groq"))
	require.NoError(t, rl.Use("groq"))
	assert.False(t, rl.Allow("groq"))

	err := rl.Use("groq")
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Contains(t, err.Error(), "groq")

	assert.True(t, rl.Allow("gemini"), "unlisted providers are unlimited")
}

func TestLimiter_Total(t *testing.T) {
	rl := New(nil, 2, logger.Discard())
	require.NoError(t, rl.Use("groq"))
	require.NoError(t, rl.Use("gemini"))
	assert.ErrorIs(t, rl.Use("ollama"), ErrLimitExceeded)

	stats := rl.Stats()
	assert.Equal(t, 2, stats["total_used"])
	assert.Equal(t, 1, stats["groq_used"])
	assert.Equal(t, 2, stats["cache_misses"])
}

func TestLimiter_Reset(t *testing.T) {
	now := time.Now()
	rl := New(map[string]int{"groq": 1}, 0, logger.Discard())
	rl.now = func() time.Time { return now }

	require.NoError(t, rl.Use("groq"))
	assert.False(t, rl.Allow("groq"))

	now = now.Add(25 * time.Hour)
	assert.True(t, rl.Allow("groq"))
	require.NoError(t, rl.Use("groq"))
}

func TestLimiter_CacheHits(t *testing.T) {
	rl := New(nil, 0, logger.Discard())
	rl.RecordCacheHit()
	rl.RecordCacheHit()
	assert.Equal(t, 2, rl.Stats()["cache_hits"])
}

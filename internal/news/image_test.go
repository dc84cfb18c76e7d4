package news

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deusflow/ainews/internal/config"
)

func newTestResolver() *ImageResolver {
	r := NewImageResolver(config.DefaultCuration().Categories, "technology")
	fixed := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	return r
}

func TestImageResolver_FallbackChain(t *testing.T) {
	r := newTestResolver()
	pool := []string{"https://img.example.com/0.jpg", "https://img.example.com/1.jpg"}

	tests := []struct {
		name   string
		raw    RawResult
		index  int
		want   string
		prefix string
	}{
		{
			name:  "own image wins",
			raw:   RawResult{Title: "t", Image: "https://own.example.com/a.png", URL: "https://youtu.be/dQw4w9WgXcQ"},
			index: 0,
			want:  "https://own.example.com/a.png",
		},
		{
			name:  "pool at batch index",
			raw:   RawResult{Title: "t", URL: "https://youtu.be/dQw4w9WgXcQ"},
			index: 1,
			want:  "https://img.example.com/1.jpg",
		},
		{
			name:  "pool too short falls to thumbnail",
			raw:   RawResult{Title: "t", URL: "https://youtu.be/dQw4w9WgXcQ"},
			index: 5,
			want:  "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		},
		{
			name:   "placeholder for plain article",
			raw:    RawResult{Title: "t", URL: "https://arxiv.org/abs/1"},
			index:  7,
			prefix: "https://source.unsplash.com/800x450/?artificial+intelligence+neural+network&sig=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.raw, pool, tt.index, "development")
			if tt.prefix != "" {
				assert.True(t, strings.HasPrefix(got, tt.prefix), got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImageResolver_BlankPoolEntryFallsThrough(t *testing.T) {
	r := newTestResolver()
	got := r.Resolve(RawResult{Title: "t", URL: "https://youtu.be/dQw4w9WgXcQ"}, []string{"  "}, 0, "research")
	assert.Equal(t, ThumbnailURL("dQw4w9WgXcQ"), got)
}

func TestImageResolver_NeverEmpty(t *testing.T) {
	r := newTestResolver()
	inputs := []RawResult{
		{},
		{Title: "only title"},
		{URL: "#"},
		{URL: "https://www.youtube.com/@channel"},
		{Content: "body"},
	}
	for _, raw := range inputs {
		for _, cat := range []string{"development", "training", "research", "startup", "unknown", ""} {
			assert.NotEmpty(t, r.Resolve(raw, nil, 0, cat))
			assert.NotEmpty(t, r.Resolve(raw, []string{}, -1, cat))
		}
	}
}

func TestImageResolver_PlaceholderUnique(t *testing.T) {
	r := newTestResolver()

	a := r.Placeholder("Same title", "training")
	b := r.Placeholder("Same title", "training")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "?machine+learning+programming&sig=")

	assert.Contains(t, r.Placeholder("x", "unknown"), "?technology&sig=")
}

package news

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func art(url string, score float64, video bool) Article {
	a := Article{URL: url, Link: url, Score: score, Title: url}
	if video {
		a.VideoID = "dQw4w9WgXcQ"
	}
	return a
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name  string
		cands []Article
		want  string
	}{
		{
			name:  "highest score",
			cands: []Article{art("a", 1, false), art("b", 3, false), art("c", 2, false)},
			want:  "b",
		},
		{
			name:  "video beats higher scoring article",
			cands: []Article{art("article", 95, false), art("video", 10, true)},
			want:  "video",
		},
		{
			name:  "best video among videos",
			cands: []Article{art("v1", 5, true), art("a", 99, false), art("v2", 7, true)},
			want:  "v2",
		},
		{
			name:  "tie keeps first",
			cands: []Article{art("first", 4, false), art("second", 4, false)},
			want:  "first",
		},
		{
			name:  "video tie keeps first video",
			cands: []Article{art("a", 9, false), art("v1", 4, true), art("v2", 4, true)},
			want:  "v1",
		},
		{
			name:  "negative scores",
			cands: []Article{art("a", -3, false), art("b", -1, false)},
			want:  "b",
		},
		{
			name:  "nan ranks last",
			cands: []Article{art("nan", math.NaN(), false), art("zero", 0, false)},
			want:  "zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBest(tt.cands)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.URL)
		})
	}
}

func TestSelectBest_Empty(t *testing.T) {
	_, ok := SelectBest(nil)
	assert.False(t, ok)
}

func TestSelectBest_Deterministic(t *testing.T) {
	cands := []Article{art("a", 2, false), art("b", 2, false), art("c", 1, false), art("d", 2, false)}
	first, _ := SelectBest(cands)
	for i := 0; i < 50; i++ {
		got, _ := SelectBest(cands)
		assert.Equal(t, first, got)
	}
	assert.Equal(t, "a", first.URL)
}

func TestWithoutURLs(t *testing.T) {
	cands := []Article{art("x", 1, false), art(PlaceholderURL, 1, false), art("y", 1, false)}
	got := withoutURLs(cands, map[string]bool{"x": true, PlaceholderURL: true})
	require.Len(t, got, 2)
	assert.Equal(t, PlaceholderURL, got[0].URL)
	assert.Equal(t, "y", got[1].URL)
}

package news

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deusflow/ainews/internal/config"
)

// filler returns n neutral words.
func filler(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestQualityFilter_Check(t *testing.T) {
	f := NewQualityFilter(config.DefaultCuration())

	tests := []struct {
		name     string
		raw      RawResult
		category string
		accepted bool
		reason   RejectReason
	}{
		{
			name:     "substantive on topic",
			raw:      RawResult{Title: "New LLM agent framework", Content: "The release adds multimodal support. " + filler(20)},
			category: "development",
			accepted: true,
		},
		{
			name:     "too short even with keywords",
			raw:      RawResult{Title: "LLM agent RAG GPT", Content: "llm agent rag gpt embedding vector"},
			category: "development",
			reason:   ReasonTooShort,
		},
		{
			name:     "snippet used when content missing",
			raw:      RawResult{Title: "arxiv paper", Snippet: "A transformer benchmark study. " + filler(20)},
			category: "research",
			accepted: true,
		},
		{
			name:     "title does not count toward length",
			raw:      RawResult{Title: filler(40) + " llm agent", Content: "short body"},
			category: "development",
			reason:   ReasonTooShort,
		},
		{
			name:     "off topic",
			raw:      RawResult{Title: "Gardening tips", Content: filler(30)},
			category: "research",
			reason:   ReasonOffTopic,
		},
		{
			name:     "one keyword is not enough",
			raw:      RawResult{Title: "A startup", Content: filler(30)},
			category: "startup",
			reason:   ReasonOffTopic,
		},
		{
			name:     "spam",
			raw:      RawResult{Title: "LLM tool launch", Content: "Click here and use promo code AI50. " + filler(25)},
			category: "startup",
			reason:   ReasonSpam,
		},
		{
			name:     "single spam phrase tolerated",
			raw:      RawResult{Title: "LLM tool launch", Content: "Sponsored. " + filler(25)},
			category: "startup",
			accepted: true,
		},
		{
			name:     "unknown category has no keywords",
			raw:      RawResult{Title: "LLM agent", Content: filler(30)},
			category: "sports",
			reason:   ReasonOffTopic,
		},
		{
			name:     "markup does not inflate word count",
			raw:      RawResult{Title: "LLM agent", Content: "<div><p>llm</p><span>agent</span></div>"},
			category: "development",
			reason:   ReasonTooShort,
		},
		{
			name:     "unusable",
			raw:      RawResult{URL: "https://example.com"},
			category: "development",
			reason:   ReasonUnusable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.Check(tt.raw, tt.category)
			assert.Equal(t, tt.accepted, v.Accepted)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestQualityFilter_ShortContentAlwaysRejected(t *testing.T) {
	f := NewQualityFilter(config.DefaultCuration())
	keywords := strings.Join(config.DefaultCuration().Categories[0].Keywords, " ")

	for n := 0; n < 20; n++ {
		raw := RawResult{Title: keywords, Content: filler(n)}
		v := f.Check(raw, "development")
		assert.False(t, v.Accepted, "words=%d", n)
	}
}

func TestQualityFilter_CaseInsensitive(t *testing.T) {
	f := NewQualityFilter(config.DefaultCuration())
	v := f.Check(RawResult{Title: "ARXIV Paper", Content: filler(25)}, "research")
	assert.True(t, v.Accepted)
	assert.Equal(t, 2, v.KeywordMatches)
}

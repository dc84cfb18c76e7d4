package news

import (
	"strings"

	"github.com/deusflow/ainews/internal/config"
)

type RejectReason string

const (
	ReasonNone     RejectReason = ""
	ReasonUnusable RejectReason = "unusable"
	ReasonTooShort RejectReason = "too_short"
	ReasonOffTopic RejectReason = "off_topic"
	ReasonSpam     RejectReason = "spam"
)

// Verdict is the outcome of a quality check. The counts are filled in
// as far as the check got before rejecting.
type Verdict struct {
	Accepted       bool
	Reason         RejectReason
	WordCount      int
	KeywordMatches int
	SpamMatches    int
}

type keywordRule struct {
	keywords   []string
	minMatches int
}

// QualityFilter applies the length, relevance and spam gates.
// It filters; ranking happens in SelectBest.
type QualityFilter struct {
	minWords      int
	spamPhrases   []string
	spamThreshold int
	rules         map[string]keywordRule
}

func NewQualityFilter(cur config.Curation) *QualityFilter {
	f := &QualityFilter{
		minWords:      cur.Quality.MinWords,
		spamPhrases:   lowerAll(cur.Quality.SpamPhrases),
		spamThreshold: cur.Quality.SpamThreshold,
		rules:         make(map[string]keywordRule, len(cur.Categories)),
	}
	for _, c := range cur.Categories {
		f.rules[c.Name] = keywordRule{keywords: lowerAll(c.Keywords), minMatches: c.MinKeywordMatches}
	}
	return f
}

// Check runs the gates in order: length, relevance, spam.
func (f *QualityFilter) Check(raw RawResult, category string) Verdict {
	if !raw.Usable() {
		return Verdict{Reason: ReasonUnusable}
	}

	body := raw.body()
	v := Verdict{WordCount: WordCount(body)}
	if v.WordCount < f.minWords {
		v.Reason = ReasonTooShort
		return v
	}

	text := strings.ToLower(raw.Title + " " + visibleText(body))

	rule := f.rules[category]
	v.KeywordMatches = countMatches(text, rule.keywords)
	minMatches := rule.minMatches
	if minMatches <= 0 {
		minMatches = 1
	}
	if v.KeywordMatches < minMatches {
		v.Reason = ReasonOffTopic
		return v
	}

	v.SpamMatches = countMatches(text, f.spamPhrases)
	if f.spamThreshold > 0 && v.SpamMatches >= f.spamThreshold {
		v.Reason = ReasonSpam
		return v
	}

	v.Accepted = true
	return v
}

// countMatches counts how many distinct phrases occur in text.
func countMatches(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			n++
		}
	}
	return n
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

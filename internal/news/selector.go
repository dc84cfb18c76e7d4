package news

import "math"

// SelectBest picks one winner: the highest-scoring video if any candidate
// is a video, otherwise the highest-scoring candidate. Equal scores keep
// the earliest candidate. An empty list has no winner.
func SelectBest(candidates []Article) (Article, bool) {
	videosOnly := false
	for _, c := range candidates {
		if c.IsVideo() {
			videosOnly = true
			break
		}
	}

	best := -1
	for i, c := range candidates {
		if videosOnly && !c.IsVideo() {
			continue
		}
		if best < 0 || rankScore(c.Score) > rankScore(candidates[best].Score) {
			best = i
		}
	}

	if best < 0 {
		return Article{}, false
	}
	return candidates[best], true
}

// rankScore sorts NaN below every real score.
func rankScore(s float64) float64 {
	if math.IsNaN(s) {
		return math.Inf(-1)
	}
	return s
}

// withoutURLs drops candidates whose URL is in taken.
func withoutURLs(candidates []Article, taken map[string]bool) []Article {
	if len(taken) == 0 {
		return candidates
	}
	out := make([]Article, 0, len(candidates))
	for _, c := range candidates {
		if c.HasRealURL() && taken[c.URL] {
			continue
		}
		out = append(out, c)
	}
	return out
}

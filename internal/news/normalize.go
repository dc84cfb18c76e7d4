package news

import (
	"strings"
	"time"
)

// DateLayout is how published dates are shown.
const DateLayout = "Jan 02, 2006"

var publishedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParsePublishedDate accepts ISO 8601 variants plus the RFC 1123 form
// some providers use.
func ParsePublishedDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalizer maps accepted RawResults onto Articles.
type Normalizer struct {
	images         *ImageResolver
	fallbackSource string
	now            func() time.Time
}

func NewNormalizer(images *ImageResolver, fallbackSource string) *Normalizer {
	return &Normalizer{images: images, fallbackSource: fallbackSource, now: time.Now}
}

// Normalize builds the Article for raw. index is the record's position
// in the provider batch and selects the matching entry of pool.
// It returns false when raw has neither a title nor any text.
func (n *Normalizer) Normalize(raw RawResult, category string, pool []string, index int) (Article, bool) {
	if !raw.Usable() {
		return Article{}, false
	}

	link := strings.TrimSpace(raw.URL)
	if link == "" {
		link = PlaceholderURL
	}

	title := strings.TrimSpace(raw.Title)
	content := firstNonEmpty(raw.Content, raw.Snippet, raw.Title)
	if title == "" {
		title = "Untitled"
	}

	published := n.now()
	if t, ok := ParsePublishedDate(raw.PublishedDate); ok {
		published = t
	}

	return Article{
		Title:         title,
		URL:           link,
		Link:          link,
		Content:       content,
		Image:         n.images.Resolve(raw, pool, index, category),
		VideoID:       ExtractVideoID(link).ID,
		Source:        SourceName(link, n.fallbackSource),
		PublishedDate: published.Format(DateLayout),
		Score:         raw.Score,
		Category:      category,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package news

import (
	"net/url"
	"strings"
)

const DefaultSourceLabel = "GENAI NEWS"

// SourceName derives a short uppercase label from a URL's host:
// "https://www.techcrunch.com/x" becomes "TECHCRUNCH". It never fails;
// fallback is returned when no label can be derived.
func SourceName(rawURL, fallback string) string {
	if fallback == "" {
		fallback = DefaultSourceLabel
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || rawURL == PlaceholderURL {
		return fallback
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return fallback
	}
	return strings.ToUpper(label)
}

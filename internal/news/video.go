package news

import (
	"regexp"
	"strings"
)

type VideoStatus int

const (
	// VideoNone means the URL does not belong to the video platform.
	VideoNone VideoStatus = iota
	VideoMatched
	// VideoSuspected means the URL mentions the platform but no known
	// URL shape matched. Usually a sign the provider changed formats.
	VideoSuspected
)

func (s VideoStatus) String() string {
	switch s {
	case VideoMatched:
		return "matched"
	case VideoSuspected:
		return "suspected"
	default:
		return "none"
	}
}

type VideoMatch struct {
	ID     string
	Status VideoStatus
}

func (m VideoMatch) Found() bool { return m.Status == VideoMatched }

const videoIDPattern = `([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`

// Ordered by priority; first match wins.
var videoGrammars = []struct {
	name string
	re   *regexp.Regexp
}{
	{"watch", regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtube\.com/watch\?v=` + videoIDPattern)},
	{"short-link", regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtu\.be/` + videoIDPattern)},
	{"embed", regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|m\.)?youtube(?:-nocookie)?\.com/embed/` + videoIDPattern)},
	{"shorts", regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|m\.)?youtube\.com/shorts/` + videoIDPattern)},
	{"mobile-watch", regexp.MustCompile(`(?i)^(?:https?://)?m\.youtube\.com/watch\?v=` + videoIDPattern)},
	{"live", regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|m\.)?youtube\.com/live/` + videoIDPattern)},
	{"query", regexp.MustCompile(`(?i)^(?:https?://)?(?:[a-z0-9-]+\.)*youtube\.com/[^?#]*\?(?:[^#]*&)?v=` + videoIDPattern)},
}

var videoHostHints = []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}

// ExtractVideoID finds an 11-character YouTube video ID in rawURL.
func ExtractVideoID(rawURL string) VideoMatch {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return VideoMatch{}
	}

	for _, g := range videoGrammars {
		if m := g.re.FindStringSubmatch(rawURL); m != nil {
			return VideoMatch{ID: m[1], Status: VideoMatched}
		}
	}

	lower := strings.ToLower(rawURL)
	for _, hint := range videoHostHints {
		if strings.Contains(lower, hint) {
			return VideoMatch{Status: VideoSuspected}
		}
	}
	return VideoMatch{}
}

func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

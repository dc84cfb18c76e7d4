package news

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	bracketArtifactRe  = regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)
	markdownLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	markupCharsRe      = regexp.MustCompile("[#*_`|>]+")
	spaceBeforePunctRe = regexp.MustCompile(`\s+([.,;:!?])`)
)

// visibleText returns s with markup removed and whitespace collapsed.
func visibleText(s string) string {
	if strings.ContainsRune(s, '<') {
		// Spacing tags apart keeps words in adjacent elements separate.
		spaced := strings.ReplaceAll(s, "<", " <")
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(spaced)); err == nil {
			doc.Find("script,style").Remove()
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// WordCount counts the visible words of s, ignoring markup.
func WordCount(s string) int {
	return len(strings.Fields(visibleText(s)))
}

// CleanDescription strips markup and bracket artifacts from s, then
// keeps the first sentence when it fits in max runes, otherwise cuts at
// a word boundary and appends an ellipsis.
func CleanDescription(s string, maxRunes int) string {
	s = visibleText(s)
	s = markdownLinkRe.ReplaceAllString(s, "$1")
	s = bracketArtifactRe.ReplaceAllString(s, "")
	s = markupCharsRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = spaceBeforePunctRe.ReplaceAllString(s, "$1")
	if s == "" || maxRunes <= 0 {
		return s
	}

	if end := firstSentenceEnd(s); end > 0 && utf8.RuneCountInString(s[:end]) <= maxRunes {
		return s[:end]
	}
	return Truncate(s, maxRunes)
}

// Truncate cuts s to at most maxRunes runes (ellipsis included) on a
// word boundary where possible.
func Truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	const ellipsis = "..."
	limit := maxRunes - len(ellipsis)
	if limit <= 0 {
		return ellipsis[:max(maxRunes, 0)]
	}

	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-.") + ellipsis
}

func firstSentenceEnd(s string) int {
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			if s[i+1] == ' ' {
				return i + 1
			}
		}
	}
	return 0
}

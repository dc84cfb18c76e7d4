package summarize

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

var badPrefixes = []string{
	"here is", "here's", "summary:", "in summary",
	"this article", "the article", "according to",
	"the research", "researchers", "the text", "this text",
	"sure", "certainly", "of course",
}

var (
	codeFenceRe = regexp.MustCompile("```[a-zA-Z]*")
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	markdown    = goldmark.New()
)

// Clean strips meta-commentary and code fences from raw model output and
// makes sure the result is HTML.
func Clean(raw string) (string, error) {
	s := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))

	lower := strings.ToLower(s)
	for _, bp := range badPrefixes {
		if strings.HasPrefix(lower, bp) {
			s = strings.TrimLeft(s[len(bp):], " :-.,")
			break
		}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptySummary
	}
	return EnsureHTML(s), nil
}

// EnsureHTML renders tag-free text as markdown and repairs stray
// markdown bold and bullet lists inside HTML output.
func EnsureHTML(s string) string {
	if !strings.Contains(s, "<") {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(s), &buf); err != nil {
			return "<p>" + s + "</p>"
		}
		return strings.TrimSpace(buf.String())
	}

	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	if !strings.Contains(s, "\n-") {
		return s
	}

	var out []string
	inList := false
	for _, line := range strings.Split(s, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "- ") {
			if !inList {
				out = append(out, "<ul>")
				inList = true
			}
			out = append(out, "<li>"+stripped[2:]+"</li>")
			continue
		}
		if inList {
			out = append(out, "</ul>")
			inList = false
		}
		switch {
		case stripped == "":
		case strings.HasPrefix(stripped, "<"):
			out = append(out, stripped)
		default:
			out = append(out, "<p>"+stripped+"</p>")
		}
	}
	if inList {
		out = append(out, "</ul>")
	}
	return strings.Join(out, "\n")
}

package render

import (
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/ainews/internal/news"
)

// Assets are the pieces email clients can't fetch on their own.
type Assets struct {
	CSS      string
	LogoPath string
}

// PostProcess makes rendered HTML self-contained for email clients,
// which ignore external stylesheets and strip iframes.
func PostProcess(page string, assets Assets) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse rendered html: %w", err)
	}

	doc.Find(`link[rel="stylesheet"]`).Remove()
	if assets.CSS != "" {
		doc.Find("head").AppendHtml("<style>\n" + assets.CSS + "\n</style>")
	}

	logo := doc.Find("img.logo")
	if uri, ok := dataURI(assets.LogoPath); ok {
		logo.SetAttr("src", uri)
	} else {
		logo.Remove()
	}

	doc.Find("iframe[data-video-id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-video-id")
		title, _ := s.Attr("title")
		s.ReplaceWithHtml(fmt.Sprintf(
			`<a href="%s"><img src="%s" alt="%s"></a>`,
			news.WatchURL(id), news.ThumbnailURL(id), html.EscapeString(title),
		))
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("serialize html: %w", err)
	}
	return out, nil
}

func dataURI(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	raw, err := os.ReadFile(path)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return "data:" + http.DetectContentType(raw) + ";base64," + base64.StdEncoding.EncodeToString(raw), true
}

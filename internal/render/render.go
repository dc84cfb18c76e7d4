// Package render builds the newsletter HTML from a curated edition.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/news"
)

//go:embed templates/newsletter.html templates/newsletter.css
var templateFS embed.FS

var newsletterTmpl = template.Must(
	template.New("newsletter.html").
		Funcs(template.FuncMap{"summary": safeSummary}).
		ParseFS(templateFS, "templates/newsletter.html"),
)

// Section is one category slot; Article is nil when the category had no
// winner this run.
type Section struct {
	Category string
	Article  *news.Article
}

type Data struct {
	NewsletterTitle string
	CurrentDate     string
	TimeOfDay       string
	Sections        []Section
	Tools           []news.Tool
	TotalArticles   int
	VideoCount      int
	FeedbackURL     string
	NewsletterID    string
	Year            int

	labels map[string]string
}

// NewData lays the edition out in configured category order.
func NewData(e *news.Edition, categories []config.Category, title, feedbackURL string, now time.Time) Data {
	d := Data{
		NewsletterTitle: title,
		CurrentDate:     now.Format("January 02, 2006"),
		TimeOfDay:       TimeOfDay(now.Hour()),
		FeedbackURL:     feedbackURL,
		NewsletterID:    now.Format("20060102"),
		Year:            now.Year(),
		labels:          make(map[string]string, len(categories)),
	}
	for _, c := range categories {
		d.labels[c.Name] = c.Label
	}
	if e == nil {
		return d
	}

	for _, name := range e.Categories {
		d.Sections = append(d.Sections, Section{Category: name, Article: e.Get(name)})
	}
	d.Tools = e.Tools
	d.TotalArticles = e.TotalArticles
	d.VideoCount = e.VideoCount
	return d
}

// Label is the display heading of a category.
func (d Data) Label(category string) string {
	if l := d.labels[category]; l != "" {
		return l
	}
	return strings.ToUpper(category)
}

func TimeOfDay(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

func Render(d Data) (string, error) {
	var buf bytes.Buffer
	if err := newsletterTmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render newsletter: %w", err)
	}
	return buf.String(), nil
}

// CSS returns the stylesheet shipped with the template.
func CSS() string {
	b, err := templateFS.ReadFile("templates/newsletter.css")
	if err != nil {
		return ""
	}
	return string(b)
}

// WriteFile saves html as dir/newsletter_<timestamp>.html and returns the path.
func WriteFile(dir, html string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, "newsletter_"+now.Format("20060102_150405")+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("write newsletter: %w", err)
	}
	return path, nil
}

var allowedSummaryTags = map[string]bool{
	"p": true, "br": true, "strong": true, "b": true, "em": true, "i": true,
	"ul": true, "ol": true, "li": true, "a": true, "code": true,
}

// safeSummary keeps the formatting tags a summary is expected to use and
// unwraps everything else to its text.
func safeSummary(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div id=\"summary-root\">" + s + "</div>"))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	root := doc.Find("#summary-root")
	root.Find("script, style, iframe, object, embed").Remove()
	root.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if !allowedSummaryTags[node.Data] {
			sel.ReplaceWithSelection(sel.Contents())
			return
		}
		href, hasHref := sel.Attr("href")
		for _, attr := range append(node.Attr[:0:0], node.Attr...) {
			sel.RemoveAttr(attr.Key)
		}
		if node.Data == "a" && hasHref && (strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")) {
			sel.SetAttr("href", href)
		}
	})
	out, err := root.Html()
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(out)
}

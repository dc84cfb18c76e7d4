// Package scraper fetches article pages to fill in thin search snippets.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

// ArticleContent is full article content
type ArticleContent struct {
	Title   string
	Content string
	URL     string
}

type Scraper struct {
	client      *http.Client
	concurrency int
	logger      *slog.Logger
}

func New(timeout time.Duration, concurrency int, l *slog.Logger) *Scraper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scraper{
		client:      &http.Client{Timeout: timeout},
		concurrency: concurrency,
		logger:      logger.OrDefault(l),
	}
}

// Extract gets the readable text of the article at url.
func (s *Scraper) Extract(ctx context.Context, url string) (*ArticleContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ainews/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	doc.Find("script, style, nav, footer, aside, form").Remove()

	content := cleanContent(extractContent(doc, url))
	if content == "" {
		return nil, fmt.Errorf("can't get content from %s", url)
	}

	return &ArticleContent{
		Title:   extractTitle(doc),
		Content: content,
		URL:     url,
	}, nil
}

// Enrich replaces the content of thin non-video winners with the text
// scraped from their page, when that text is longer. Failures leave the
// article as it was.
func (s *Scraper) Enrich(ctx context.Context, e *news.Edition, belowWords int) int {
	if e == nil || belowWords <= 0 {
		return 0
	}

	var targets []*news.Article
	for _, a := range e.Articles() {
		if a.IsVideo() || !a.HasRealURL() {
			continue
		}
		if news.WordCount(a.Content) < belowWords {
			targets = append(targets, a)
		}
	}
	if len(targets) == 0 {
		return 0
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		enriched int
		sem      = make(chan struct{}, s.concurrency)
	)
	for _, a := range targets {
		wg.Add(1)
		go func(a *news.Article) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			full, err := s.Extract(ctx, a.URL)
			if err != nil {
				s.logger.Warn("Can't get full content", "url", a.URL, "error", err)
				return
			}
			if news.WordCount(full.Content) <= news.WordCount(a.Content) {
				s.logger.Debug("Scraped content not longer, keeping snippet", "url", a.URL)
				return
			}

			// each goroutine owns its article; the counter is shared
			a.Content = full.Content
			mu.Lock()
			enriched++
			mu.Unlock()
			s.logger.Info("Enriched article", "category", a.Category, "chars", len(full.Content))
		}(a)
	}
	wg.Wait()
	return enriched
}

// Per-site selectors; anything else goes through the generic list.
var siteSelectors = map[string][]string{
	"arxiv.org":       {"blockquote.abstract"},
	"huggingface.co":  {".blog-content p", "article p"},
	"medium.com":      {"article section p", "article p"},
	"techcrunch.com":  {".wp-block-post-content p", ".article-content p"},
	"venturebeat.com": {".article-content p", "article p"},
}

var genericSelectors = []string{
	"article p",
	".article p",
	".content p",
	".post-content p",
	".entry-content p",
	"main p",
	"#content p",
	"p",
}

func extractContent(doc *goquery.Document, url string) string {
	for host, selectors := range siteSelectors {
		if strings.Contains(url, host) {
			if c := collect(doc, selectors, 10, 1); c != "" {
				return c
			}
		}
	}
	return collect(doc, genericSelectors, 20, 3)
}

// collect tries selectors in order and stops at the first one that
// yields at least enough paragraphs longer than minLen.
func collect(doc *goquery.Document, selectors []string, minLen, enough int) string {
	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > minLen {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= enough {
			break
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", "title", ".article-title", ".headline", ".entry-title"} {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

var junkPhrases = []string{
	"Subscribe to our newsletter",
	"Sign up for our newsletter",
	"Share this article",
	"Read more:",
	"Related articles",
	"Advertisement",
	"Follow us on",
	"All rights reserved",
}

var junkIndicators = []string{
	"cookie", "gdpr", "privacy policy", "sign in", "log in",
	"subscribe", "newsletter", "share on", "click here",
}

const (
	maxContentLen = 1800
	keepLen       = 1600
)

// cleanContent drops junk lines, joins wrapped lines into paragraphs and
// caps the result at paragraph boundaries.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}
	for _, phrase := range junkPhrases {
		content = strings.ReplaceAll(content, phrase, "")
	}

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if p := strings.TrimSpace(current.String()); len(p) > 30 {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if len(line) < 8 {
			flush()
			continue
		}
		if isJunk(line) {
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
		if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") || strings.HasSuffix(line, "?") {
			flush()
		}
	}
	flush()

	text := strings.Join(paragraphs, "\n\n")
	if len(text) <= maxContentLen {
		return text
	}

	var kept []string
	total := 0
	for _, p := range paragraphs {
		if total+len(p) >= keepLen {
			break
		}
		kept = append(kept, p)
		total += len(p) + 2
	}
	if len(kept) == 0 {
		return news.Truncate(paragraphs[0], keepLen)
	}
	return strings.Join(kept, "\n\n")
}

func isJunk(line string) bool {
	lower := strings.ToLower(line)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

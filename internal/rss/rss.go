// Package rss serves search requests from a fixed list of feeds.
package rss

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

// Searcher downloads its feeds once per TTL and ranks the items against
// each query by term overlap.
type Searcher struct {
	feeds   []string
	timeout time.Duration
	ttl     time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	items     []*gofeed.Item
	fetchedAt time.Time
	now       func() time.Time
}

func NewSearcher(feeds []string, timeout time.Duration, l *slog.Logger) *Searcher {
	return &Searcher{
		feeds:   append([]string(nil), feeds...),
		timeout: timeout,
		ttl:     10 * time.Minute,
		logger:  logger.OrDefault(l),
		now:     time.Now,
	}
}

func (s *Searcher) Search(ctx context.Context, req news.SearchRequest) (news.SearchResponse, error) {
	items, err := s.load(ctx)
	if err != nil {
		return news.SearchResponse{}, err
	}

	terms := queryTerms(req.Query)
	type ranked struct {
		item    *gofeed.Item
		overlap int
	}
	var hits []ranked
	for _, it := range items {
		if n := overlap(terms, it.Title+" "+it.Description); n > 0 {
			hits = append(hits, ranked{item: it, overlap: n})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].overlap > hits[j].overlap })

	if req.MaxResults > 0 && len(hits) > req.MaxResults {
		hits = hits[:req.MaxResults]
	}

	resp := news.SearchResponse{Results: make([]news.RawResult, 0, len(hits))}
	for _, h := range hits {
		r := toRawResult(h.item)
		r.Score = float64(h.overlap) / float64(len(terms))
		resp.Results = append(resp.Results, r)
		if req.WantImages && r.Image != "" {
			resp.Images = append(resp.Images, r.Image)
		}
	}
	return resp, nil
}

// load returns the cached feed items, refetching them when stale.
func (s *Searcher) load(ctx context.Context) ([]*gofeed.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.items != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.items, nil
	}

	items, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	s.items, s.fetchedAt = items, s.now()
	return items, nil
}

// fetchAll downloads all feeds concurrently. A broken feed is logged
// and skipped.
func (s *Searcher) fetchAll(ctx context.Context) ([]*gofeed.Item, error) {
	results := make([][]*gofeed.Item, len(s.feeds))
	var wg sync.WaitGroup

	for i, url := range s.feeds {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()

			fctx := ctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}

			feed, err := gofeed.NewParser().ParseURLWithContext(url, fctx)
			if err != nil {
				s.logger.Warn("Error parsing RSS", "feed", url, "error", err)
				return
			}
			results[i] = feed.Items
			s.logger.Debug("Loaded feed", "feed", url, "items", len(feed.Items))
		}(i, url)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []*gofeed.Item
	ok := 0
	for _, items := range results {
		if items != nil {
			ok++
		}
		all = append(all, items...)
	}
	s.logger.Info("Processed RSS feeds", "ok", ok, "total", len(s.feeds), "items", len(all))
	return all, nil
}

func toRawResult(it *gofeed.Item) news.RawResult {
	r := news.RawResult{
		Title:   strings.TrimSpace(it.Title),
		URL:     it.Link,
		Content: it.Content,
		Snippet: it.Description,
	}
	if it.PublishedParsed != nil {
		r.PublishedDate = it.PublishedParsed.UTC().Format(time.RFC3339)
	} else if it.UpdatedParsed != nil {
		r.PublishedDate = it.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	if it.Image != nil && it.Image.URL != "" {
		r.Image = it.Image.URL
	} else {
		for _, enc := range it.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				r.Image = enc.URL
				break
			}
		}
	}
	return r
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "or": true, "the": true, "of": true,
	"in": true, "on": true, "for": true, "to": true, "with": true, "news": true,
}

func queryTerms(q string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, f := range strings.FieldsFunc(strings.ToLower(q), isSeparator) {
		if stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

func overlap(terms []string, text string) int {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		words[w] = true
	}
	n := 0
	for _, t := range terms {
		if words[t] {
			n++
		}
	}
	return n
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
}

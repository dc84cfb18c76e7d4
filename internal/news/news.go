// Package news turns noisy search results into one curated Edition:
// a single winning Article per category plus a short list of tools.
package news

import (
	"context"
	"errors"
	"strings"
)

// ErrNoWinners is returned by callers that treat an empty edition as a failed run.
var ErrNoWinners = errors.New("edition has no winning articles")

// PlaceholderURL stands in for a missing link.
const PlaceholderURL = "#"

// RawResult is one record as returned by a search provider.
// Empty strings mean the provider did not supply the field.
type RawResult struct {
	Title         string
	URL           string
	Content       string
	Snippet       string
	Image         string
	PublishedDate string
	Score         float64
}

// Usable reports whether the record carries a title or any body text.
func (r RawResult) Usable() bool {
	return strings.TrimSpace(r.Title) != "" ||
		strings.TrimSpace(r.Content) != "" ||
		strings.TrimSpace(r.Snippet) != ""
}

// body is the article text the quality gates look at.
func (r RawResult) body() string {
	if c := strings.TrimSpace(r.Content); c != "" {
		return c
	}
	return strings.TrimSpace(r.Snippet)
}

// Article is the canonical curated unit.
type Article struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Link          string  `json:"link"`
	Content       string  `json:"content"`
	Image         string  `json:"image"`
	VideoID       string  `json:"video_id,omitempty"`
	Source        string  `json:"source"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score"`
	Category      string  `json:"category"`
	Summary       string  `json:"summary,omitempty"`
}

func (a Article) IsVideo() bool { return a.VideoID != "" }

// HasRealURL is false for articles whose link fell back to the placeholder.
func (a Article) HasRealURL() bool {
	return a.URL != "" && a.URL != PlaceholderURL
}

type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Edition is one run's curated output.
type Edition struct {
	// Categories holds every configured category in order, including
	// those without a winner this run.
	Categories    []string
	Winners       map[string]*Article
	Tools         []Tool
	TotalArticles int
	VideoCount    int
}

func NewEdition(categories []string) *Edition {
	return &Edition{
		Categories: append([]string(nil), categories...),
		Winners:    make(map[string]*Article, len(categories)),
	}
}

// Get returns the winner for a category or nil.
func (e *Edition) Get(category string) *Article {
	if e == nil {
		return nil
	}
	return e.Winners[category]
}

// Articles returns the winners in category order.
func (e *Edition) Articles() []*Article {
	out := make([]*Article, 0, len(e.Winners))
	for _, c := range e.Categories {
		if a := e.Winners[c]; a != nil {
			out = append(out, a)
		}
	}
	return out
}

func (e *Edition) Empty() bool { return e == nil || e.TotalArticles == 0 }

// Recount refreshes the derived counters from Winners.
func (e *Edition) Recount() {
	e.TotalArticles, e.VideoCount = 0, 0
	for _, a := range e.Winners {
		if a == nil {
			continue
		}
		e.TotalArticles++
		if a.IsVideo() {
			e.VideoCount++
		}
	}
}

type SearchRequest struct {
	Query      string
	MaxResults int
	WantImages bool
}

type SearchResponse struct {
	Results []RawResult
	Images  []string
}

// Searcher is the search provider seen from the curation side.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
}

// ArticleStore is the durable record of articles already curated.
type ArticleStore interface {
	// UpsertArticle inserts the article keyed by URL or refreshes summary
	// and score of the existing row. It reports whether a row was created.
	UpsertArticle(ctx context.Context, a Article) (bool, error)
	Exists(ctx context.Context, url string) (bool, error)
}

// Package search talks to web search providers.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

const TavilyEndpoint = "https://api.tavily.com/search"

type Tavily struct {
	apiKey   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

type TavilyOption func(*Tavily)

func WithEndpoint(u string) TavilyOption {
	return func(t *Tavily) { t.endpoint = u }
}

func WithHTTPClient(c *http.Client) TavilyOption {
	return func(t *Tavily) { t.client = c }
}

func WithLogger(l *slog.Logger) TavilyOption {
	return func(t *Tavily) { t.logger = l }
}

func NewTavily(apiKey string, timeout time.Duration, opts ...TavilyOption) *Tavily {
	t := &Tavily{
		apiKey:   apiKey,
		endpoint: TavilyEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logger.OrDefault(t.logger)
	return t
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeImages     bool   `json:"include_images"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Snippet       string  `json:"snippet"`
	Image         string  `json:"image"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult  `json:"results"`
	Images  json.RawMessage `json:"images"`
}

// Search runs one advanced Tavily query.
func (t *Tavily) Search(ctx context.Context, req news.SearchRequest) (news.SearchResponse, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:        t.apiKey,
		Query:         req.Query,
		SearchDepth:   "advanced",
		MaxResults:    req.MaxResults,
		IncludeImages: req.WantImages,
	})
	if err != nil {
		return news.SearchResponse{}, fmt.Errorf("encode tavily request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return news.SearchResponse{}, fmt.Errorf("build tavily request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return news.SearchResponse{}, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return news.SearchResponse{}, fmt.Errorf("tavily returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return news.SearchResponse{}, fmt.Errorf("decode tavily response: %w", err)
	}

	out := news.SearchResponse{
		Results: make([]news.RawResult, 0, len(decoded.Results)),
		Images:  decodeImages(decoded.Images),
	}
	for _, r := range decoded.Results {
		out.Results = append(out.Results, news.RawResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Snippet:       r.Snippet,
			Image:         r.Image,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}

	t.logger.Debug("Tavily search done", "query", req.Query, "results", len(out.Results), "images", len(out.Images))
	return out, nil
}

// decodeImages accepts both plain URL lists and the
// include_image_descriptions form ([{"url": ..., "description": ...}]).
func decodeImages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err == nil {
		return urls
	}

	var described []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &described); err != nil {
		return nil
	}
	urls = make([]string, 0, len(described))
	for _, d := range described {
		urls = append(urls, d.URL)
	}
	return urls
}

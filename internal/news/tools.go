package news

import (
	"context"
	"log/slog"
	"strings"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/logger"
)

// ToolCurator picks trending tools from a live search and falls back to
// a curated list when the search is too sparse.
type ToolCurator struct {
	searcher Searcher
	cfg      config.Tools
	logger   *slog.Logger
}

func NewToolCurator(searcher Searcher, cfg config.Tools, l *slog.Logger) *ToolCurator {
	return &ToolCurator{searcher: searcher, cfg: cfg, logger: logger.OrDefault(l)}
}

// Curate runs the tools search. Search failures fall back to the
// curated list.
func (c *ToolCurator) Curate(ctx context.Context) []Tool {
	var results []RawResult
	if c.searcher != nil && c.cfg.Query != "" {
		resp, err := c.searcher.Search(ctx, SearchRequest{
			Query:      c.cfg.Query,
			MaxResults: c.cfg.MaxResults,
		})
		if err != nil {
			c.logger.Warn("Tools search failed, using curated list", "error", err)
		} else {
			results = resp.Results
		}
	}
	return c.Select(results)
}

// Select matches results against the known tool names.
func (c *ToolCurator) Select(results []RawResult) []Tool {
	limit := c.cfg.Cap
	if limit <= 0 {
		limit = 4
	}

	picked := make([]Tool, 0, limit)
	seen := make(map[string]bool)
	for _, r := range results {
		if len(picked) >= limit {
			break
		}
		name, ok := c.match(r)
		if !ok || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		link := strings.TrimSpace(r.URL)
		if link == "" {
			link = PlaceholderURL
		}
		picked = append(picked, Tool{
			Name:        name,
			Description: CleanDescription(firstNonEmpty(r.Content, r.Snippet, r.Title), c.cfg.DescriptionMax),
			Link:        link,
		})
	}

	if len(picked) < c.cfg.Min {
		c.logger.Info("Too few tools matched, using curated list", "matched", len(picked), "min", c.cfg.Min)
		return c.Fallback()
	}
	return picked
}

// Fallback returns a copy of the curated tool list.
func (c *ToolCurator) Fallback() []Tool {
	out := make([]Tool, 0, len(c.cfg.Fallback))
	for _, t := range c.cfg.Fallback {
		out = append(out, Tool{Name: t.Name, Description: t.Description, Link: t.Link})
	}
	return out
}

// match returns the first known tool named in the title or URL.
func (c *ToolCurator) match(r RawResult) (string, bool) {
	title := strings.ToLower(r.Title)
	link := strings.ToLower(r.URL)
	for _, name := range c.cfg.Known {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" {
			continue
		}
		compact := strings.ReplaceAll(lower, " ", "")
		if strings.Contains(title, lower) || strings.Contains(link, compact) {
			return name, true
		}
	}
	return "", false
}

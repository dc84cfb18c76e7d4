package news

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
)

const DefaultSearchTimeout = 30 * time.Second

// Aggregator runs one search per category and assembles the Edition.
type Aggregator struct {
	searcher   Searcher
	categories []config.Category
	filter     *QualityFilter
	normalizer *Normalizer
	gate       *Gate
	tools      *ToolCurator
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type AggregatorOption func(*Aggregator)

func WithSearchTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.timeout = d }
}

func WithGate(g *Gate) AggregatorOption {
	return func(a *Aggregator) { a.gate = g }
}

func WithToolCurator(c *ToolCurator) AggregatorOption {
	return func(a *Aggregator) { a.tools = c }
}

func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

func WithMetrics(m *metrics.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// WithClock overrides the time source used for dates and placeholders.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.normalizer.now = now
		a.normalizer.images.now = now
	}
}

func NewAggregator(searcher Searcher, cur config.Curation, opts ...AggregatorOption) *Aggregator {
	images := NewImageResolver(cur.Categories, cur.DefaultImageKeyword)
	a := &Aggregator{
		searcher:   searcher,
		categories: cur.Categories,
		filter:     NewQualityFilter(cur),
		normalizer: NewNormalizer(images, cur.FallbackSource),
		timeout:    DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrDefault(a.logger)
	return a
}

type categoryResult struct {
	category   string
	candidates []Article
	err        error
}

// Run builds one Edition. A category whose search fails or that yields
// no acceptable candidate is left out; Run itself never fails.
func (a *Aggregator) Run(ctx context.Context) *Edition {
	names := make([]string, 0, len(a.categories))
	for _, c := range a.categories {
		names = append(names, c.Name)
	}
	edition := NewEdition(names)

	results := make(chan categoryResult, len(a.categories))
	var wg sync.WaitGroup
	for _, cat := range a.categories {
		wg.Add(1)
		go func(cat config.Category) {
			defer wg.Done()
			cands, err := a.collect(ctx, cat)
			results <- categoryResult{category: cat.Name, candidates: cands, err: err}
		}(cat)
	}

	var tools []Tool
	toolsDone := make(chan struct{})
	go func() {
		defer close(toolsDone)
		if a.tools != nil {
			tctx, cancel := a.withTimeout(ctx)
			defer cancel()
			tools = a.tools.Curate(tctx)
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byCategory := make(map[string][]Article, len(a.categories))
	for res := range results {
		if res.err != nil {
			a.logger.Warn("Category search failed, omitting", "category", res.category, "error", res.err)
			a.metrics.IncrementCategoriesFailed()
			continue
		}
		byCategory[res.category] = res.candidates
	}

	// Cross-category dedup runs in configured order so the outcome does
	// not depend on which search returned first.
	taken := make(map[string]bool)
	for _, name := range names {
		cands := byCategory[name]
		available := withoutURLs(cands, taken)
		if dropped := len(cands) - len(available); dropped > 0 {
			a.logger.Debug("Dropped candidates already used by another category", "category", name, "dropped", dropped)
			a.metrics.AddCrossCategoryDupes(dropped)
		}

		winner, ok := SelectBest(available)
		if !ok {
			a.logger.Info("No content this cycle", "category", name, "candidates", len(cands))
			continue
		}
		if winner.HasRealURL() {
			taken[winner.URL] = true
		}
		a.gate.Note(ctx, winner)

		w := winner
		edition.Winners[name] = &w
		a.logger.Info("Selected winner",
			"category", name,
			"title", w.Title,
			"source", w.Source,
			"video", w.IsVideo(),
			"score", w.Score,
		)
	}

	<-toolsDone
	edition.Tools = tools
	edition.Recount()
	a.metrics.IncrementEditionsBuilt()

	a.logger.Info("Edition assembled",
		"total_articles", edition.TotalArticles,
		"video_count", edition.VideoCount,
		"tools", len(edition.Tools),
	)
	return edition
}

// withTimeout bounds a single provider call.
func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// collect searches one category and returns its accepted candidates.
func (a *Aggregator) collect(ctx context.Context, cat config.Category) ([]Article, error) {
	sctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.searcher.Search(sctx, SearchRequest{
		Query:      cat.Query,
		MaxResults: cat.MaxResults,
		WantImages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", cat.Name, err)
	}
	a.metrics.AddResultsSeen(len(resp.Results))

	candidates := make([]Article, 0, len(resp.Results))
	for i, raw := range resp.Results {
		if !raw.Usable() {
			a.metrics.IncrementRejection(string(ReasonUnusable))
			continue
		}

		verdict := a.filter.Check(raw, cat.Name)
		if !verdict.Accepted {
			a.logger.Debug("Rejected result",
				"category", cat.Name,
				"url", raw.URL,
				"reason", verdict.Reason,
				"words", verdict.WordCount,
				"keywords", verdict.KeywordMatches,
				"spam", verdict.SpamMatches,
			)
			a.metrics.IncrementRejection(string(verdict.Reason))
			continue
		}

		if m := ExtractVideoID(raw.URL); m.Status == VideoSuspected {
			a.logger.Warn("Video URL not recognised", "category", cat.Name, "url", raw.URL)
		}

		// i is the position in the provider batch, which is how the
		// image pool lines up with results.
		article, ok := a.normalizer.Normalize(raw, cat.Name, resp.Images, i)
		if !ok {
			continue
		}
		candidates = append(candidates, article)
	}

	return a.gate.Admit(ctx, candidates), nil
}

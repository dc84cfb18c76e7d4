package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
)

// Gate checks candidates against the durable store and records winners.
type Gate struct {
	store    ArticleStore
	skipSeen bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type GateOption func(*Gate)

// SkipSeen makes Admit drop candidates whose URL is already stored.
func SkipSeen(skip bool) GateOption {
	return func(g *Gate) { g.skipSeen = skip }
}

func GateLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

func GateMetrics(m *metrics.Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

func NewGate(store ArticleStore, opts ...GateOption) *Gate {
	g := &Gate{store: store}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logger.OrDefault(g.logger)
	return g
}

// Seen reports whether url is already stored. Lookup failures count as
// not seen.
func (g *Gate) Seen(ctx context.Context, url string) bool {
	if g == nil || url == "" || url == PlaceholderURL {
		return false
	}
	ok, err := g.store.Exists(ctx, url)
	if err != nil {
		g.logger.Warn("Dedup lookup failed", "url", url, "error", err)
		return false
	}
	return ok
}

// Admit filters candidates before selection. Unless SkipSeen is set,
// every candidate is kept.
func (g *Gate) Admit(ctx context.Context, candidates []Article) []Article {
	if g == nil || !g.skipSeen {
		return candidates
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if g.Seen(ctx, c.URL) {
			g.logger.Debug("Skipping previously sent article", "url", c.URL, "category", c.Category)
			g.metrics.IncrementPreviouslyStored()
			continue
		}
		out = append(out, c)
	}
	return out
}

// Note checks a winner against the store. A stored winner stays in the
// edition; it is only counted.
func (g *Gate) Note(ctx context.Context, winner Article) bool {
	if g == nil {
		return false
	}
	seen := g.Seen(ctx, winner.URL)
	if seen {
		g.logger.Info("Winner was curated before", "url", winner.URL, "category", winner.Category)
		g.metrics.IncrementPreviouslyStored()
	}
	return seen
}

type RecordStats struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Record upserts every winner of the edition. Articles without a real
// URL are skipped. All failures are joined into the returned error.
func (g *Gate) Record(ctx context.Context, e *Edition) (RecordStats, error) {
	var (
		stats RecordStats
		errs  []error
	)
	if g == nil || e == nil {
		return stats, nil
	}

	for _, a := range e.Articles() {
		if !a.HasRealURL() {
			stats.Skipped++
			continue
		}
		inserted, err := g.store.UpsertArticle(ctx, *a)
		if err != nil {
			errs = append(errs, fmt.Errorf("upsert %s: %w", a.URL, err))
			continue
		}
		if inserted {
			stats.Inserted++
			g.metrics.IncrementArticlesStored()
		} else {
			stats.Updated++
		}
	}

	return stats, errors.Join(errs...)
}

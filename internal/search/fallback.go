package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

// Fallback queries secondary when primary fails or comes back empty.
type Fallback struct {
	primary   news.Searcher
	secondary news.Searcher
	logger    *slog.Logger
}

func WithFallback(primary, secondary news.Searcher, l *slog.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger.OrDefault(l)}
}

func (f *Fallback) Search(ctx context.Context, req news.SearchRequest) (news.SearchResponse, error) {
	resp, err := f.primary.Search(ctx, req)
	if err == nil && len(resp.Results) > 0 {
		return resp, nil
	}
	if ctx.Err() != nil {
		return resp, errors.Join(err, ctx.Err())
	}

	f.logger.Info("Primary search empty, trying fallback", "query", req.Query, "error", err)
	resp2, err2 := f.secondary.Search(ctx, req)
	if err2 != nil {
		return news.SearchResponse{}, errors.Join(err, err2)
	}
	return resp2, nil
}

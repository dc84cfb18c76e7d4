// Package storage persists curated articles, built newsletters and their
// delivery log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/news"
)

var ErrNotFound = errors.New("not found")

const (
	ActionSent    = "sent"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type Newsletter struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	ContentHTML   string     `json:"content_html"`
	TotalArticles int        `json:"total_articles"`
	VideoCount    int        `json:"video_count"`
	CreatedAt     time.Time  `json:"created_at"`
	IsSent        bool       `json:"is_sent"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
}

type LogEntry struct {
	NewsletterID int64     `json:"newsletter_id"`
	Action       string    `json:"action"`
	Status       string    `json:"status"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}

type NewsletterStore interface {
	SaveNewsletter(ctx context.Context, n Newsletter) (int64, error)
	// LogDelivery appends to the delivery log. A successful "sent" entry
	// also marks the newsletter as sent.
	LogDelivery(ctx context.Context, newsletterID int64, action, status, details string) error
}

type Store interface {
	news.ArticleStore
	NewsletterStore

	Article(ctx context.Context, url string) (news.Article, error)
	Newsletter(ctx context.Context, id int64) (Newsletter, error)
	Logs(ctx context.Context, newsletterID int64) ([]LogEntry, error)
	Close() error
}

// Open returns the backend selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config, l *slog.Logger) (Store, error) {
	switch cfg.StorageBackend {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, l)
	case "sqlite":
		return NewSQLite(ctx, cfg.SQLitePath, l)
	case "file", "":
		return NewFileStore(cfg.StoreFilePath, l)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorage, cfg.StorageBackend)
	}
}

func marksSent(action, status string) bool {
	return action == ActionSent && status == StatusSuccess
}

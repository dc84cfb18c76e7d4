package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

type Postgres struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgres(ctx context.Context, connString string, l *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{db: pool, logger: logger.OrDefault(l)}
	if err := p.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	p.logger.Info("PostgreSQL store connected")
	return p, nil
}

func (p *Postgres) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id BIGSERIAL PRIMARY KEY,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		category VARCHAR(50),
		source VARCHAR(100),
		video_id VARCHAR(11),
		image TEXT,
		summary TEXT,
		score DOUBLE PRECISION DEFAULT 0,
		published_date VARCHAR(32),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS newsletters (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content_html TEXT NOT NULL,
		total_articles INTEGER DEFAULT 0,
		video_count INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_sent BOOLEAN NOT NULL DEFAULT FALSE,
		sent_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS newsletter_logs (
		id BIGSERIAL PRIMARY KEY,
		newsletter_id BIGINT REFERENCES newsletters(id),
		action VARCHAR(50) NOT NULL,
		status VARCHAR(50) NOT NULL,
		details TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := p.db.Exec(ctx, schema)
	return err
}

// UpsertArticle relies on xmax = 0 holding only for freshly inserted rows.
func (p *Postgres) UpsertArticle(ctx context.Context, a news.Article) (bool, error) {
	query := `
		INSERT INTO articles (url, title, category, source, video_id, image, summary, score, published_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (url) DO UPDATE SET
			summary = COALESCE(NULLIF(EXCLUDED.summary, ''), articles.summary),
			score = EXCLUDED.score,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`
	var inserted bool
	err := p.db.QueryRow(ctx, query,
		a.URL, a.Title, a.Category, a.Source, a.VideoID, a.Image, a.Summary, a.Score, a.PublishedDate,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert article: %w", err)
	}
	return inserted, nil
}

func (p *Postgres) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return exists, nil
}

func (p *Postgres) Article(ctx context.Context, url string) (news.Article, error) {
	a := news.Article{URL: url, Link: url}
	err := p.db.QueryRow(ctx, `
		SELECT title, category, source, video_id, image, summary, score, published_date
		FROM articles WHERE url = $1`, url,
	).Scan(&a.Title, &a.Category, &a.Source, &a.VideoID, &a.Image, &a.Summary, &a.Score, &a.PublishedDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return news.Article{}, ErrNotFound
	}
	if err != nil {
		return news.Article{}, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

func (p *Postgres) SaveNewsletter(ctx context.Context, n Newsletter) (int64, error) {
	var id int64
	err := p.db.QueryRow(ctx, `
		INSERT INTO newsletters (title, content_html, total_articles, video_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		n.Title, n.ContentHTML, n.TotalArticles, n.VideoCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save newsletter: %w", err)
	}
	return id, nil
}

func (p *Postgres) LogDelivery(ctx context.Context, newsletterID int64, action, status, details string) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if marksSent(action, status) {
		if _, err := tx.Exec(ctx, `UPDATE newsletters SET is_sent = TRUE, sent_at = NOW() WHERE id = $1`, newsletterID); err != nil {
			return fmt.Errorf("failed to mark newsletter sent: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO newsletter_logs (newsletter_id, action, status, details)
		VALUES ($1, $2, $3, $4)`, newsletterID, action, status, details); err != nil {
		return fmt.Errorf("failed to log delivery: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Newsletter(ctx context.Context, id int64) (Newsletter, error) {
	n := Newsletter{ID: id}
	err := p.db.QueryRow(ctx, `
		SELECT title, content_html, total_articles, video_count, created_at, is_sent, sent_at
		FROM newsletters WHERE id = $1`, id,
	).Scan(&n.Title, &n.ContentHTML, &n.TotalArticles, &n.VideoCount, &n.CreatedAt, &n.IsSent, &n.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Newsletter{}, ErrNotFound
	}
	if err != nil {
		return Newsletter{}, fmt.Errorf("failed to get newsletter: %w", err)
	}
	return n, nil
}

func (p *Postgres) Logs(ctx context.Context, newsletterID int64) ([]LogEntry, error) {
	rows, err := p.db.Query(ctx, `
		SELECT newsletter_id, action, status, COALESCE(details, ''), created_at
		FROM newsletter_logs WHERE newsletter_id = $1 ORDER BY id`, newsletterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.NewsletterID, &e.Action, &e.Status, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

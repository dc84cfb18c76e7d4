package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

// SQLite keeps everything in one local database file. Timestamps are
// stored as unix seconds.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewSQLite(ctx context.Context, path string, l *slog.Logger) (*SQLite, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	s := &SQLite{db: db, logger: logger.OrDefault(l), now: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.logger.Info("SQLite store opened", "path", path)
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		category TEXT,
		source TEXT,
		video_id TEXT,
		image TEXT,
		summary TEXT,
		score REAL DEFAULT 0,
		published_date TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS newsletters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content_html TEXT NOT NULL,
		total_articles INTEGER DEFAULT 0,
		video_count INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		is_sent BOOLEAN NOT NULL DEFAULT 0,
		sent_at INTEGER
	);

	CREATE TABLE IF NOT EXISTS newsletter_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		newsletter_id INTEGER REFERENCES newsletters(id),
		action TEXT NOT NULL,
		status TEXT NOT NULL,
		details TEXT,
		created_at INTEGER NOT NULL
	);
	`)
	return err
}

// UpsertArticle inserts then falls back to an update inside one
// transaction so the inserted flag and the row agree.
func (s *SQLite) UpsertArticle(ctx context.Context, a news.Article) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now().Unix()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (url, title, category, source, video_id, image, summary, score, published_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING`,
		a.URL, a.Title, a.Category, a.Source, a.VideoID, a.Image, a.Summary, a.Score, a.PublishedDate, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	inserted := n == 1
	if !inserted {
		_, err = tx.ExecContext(ctx, `
			UPDATE articles SET
				summary = CASE WHEN ? <> '' THEN ? ELSE summary END,
				score = ?,
				updated_at = ?
			WHERE url = ?`,
			a.Summary, a.Summary, a.Score, now, a.URL,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update article: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLite) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE url = ?)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article: %w", err)
	}
	return exists, nil
}

func (s *SQLite) Article(ctx context.Context, url string) (news.Article, error) {
	a := news.Article{URL: url, Link: url}
	err := s.db.QueryRowContext(ctx, `
		SELECT title, category, source, video_id, image, summary, score, published_date
		FROM articles WHERE url = ?`, url,
	).Scan(&a.Title, &a.Category, &a.Source, &a.VideoID, &a.Image, &a.Summary, &a.Score, &a.PublishedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return news.Article{}, ErrNotFound
	}
	if err != nil {
		return news.Article{}, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

func (s *SQLite) SaveNewsletter(ctx context.Context, n Newsletter) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO newsletters (title, content_html, total_articles, video_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		n.Title, n.ContentHTML, n.TotalArticles, n.VideoCount, s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save newsletter: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) LogDelivery(ctx context.Context, newsletterID int64, action, status, details string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now().Unix()
	if marksSent(action, status) {
		if _, err := tx.ExecContext(ctx, `UPDATE newsletters SET is_sent = 1, sent_at = ? WHERE id = ?`, now, newsletterID); err != nil {
			return fmt.Errorf("failed to mark newsletter sent: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO newsletter_logs (newsletter_id, action, status, details, created_at)
		VALUES (?, ?, ?, ?, ?)`, newsletterID, action, status, details, now); err != nil {
		return fmt.Errorf("failed to log delivery: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Newsletter(ctx context.Context, id int64) (Newsletter, error) {
	n := Newsletter{ID: id}
	var created int64
	var sent sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT title, content_html, total_articles, video_count, created_at, is_sent, sent_at
		FROM newsletters WHERE id = ?`, id,
	).Scan(&n.Title, &n.ContentHTML, &n.TotalArticles, &n.VideoCount, &created, &n.IsSent, &sent)
	if errors.Is(err, sql.ErrNoRows) {
		return Newsletter{}, ErrNotFound
	}
	if err != nil {
		return Newsletter{}, fmt.Errorf("failed to get newsletter: %w", err)
	}
	n.CreatedAt = time.Unix(created, 0)
	if sent.Valid {
		t := time.Unix(sent.Int64, 0)
		n.SentAt = &t
	}
	return n, nil
}

func (s *SQLite) Logs(ctx context.Context, newsletterID int64) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT newsletter_id, action, status, COALESCE(details, ''), created_at
		FROM newsletter_logs WHERE newsletter_id = ? ORDER BY id`, newsletterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var created int64
		if err := rows.Scan(&e.NewsletterID, &e.Action, &e.Status, &e.Details, &created); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

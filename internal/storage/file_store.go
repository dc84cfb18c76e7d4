package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

type articleRecord struct {
	news.Article
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type fileData struct {
	Articles    map[string]articleRecord `json:"articles"`
	Newsletters []Newsletter             `json:"newsletters"`
	Logs        []LogEntry               `json:"logs"`
}

// FileStore keeps the whole store in one JSON file, rewritten after
// every change.
type FileStore struct {
	filePath string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	data fileData
}

func NewFileStore(filePath string, l *slog.Logger) (*FileStore, error) {
	fs := &FileStore{
		filePath: filePath,
		logger:   logger.OrDefault(l),
		now:      time.Now,
		data:     fileData{Articles: make(map[string]articleRecord)},
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	raw, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, &fs.data); err != nil {
		return fmt.Errorf("failed to unmarshal store: %w", err)
	}
	if fs.data.Articles == nil {
		fs.data.Articles = make(map[string]articleRecord)
	}
	fs.logger.Debug("Loaded file store", "path", fs.filePath, "articles", len(fs.data.Articles))
	return nil
}

// save writes through a temp file so a crash never leaves half a store.
// Callers hold mu.
func (fs *FileStore) save() error {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	if dir := filepath.Dir(fs.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store dir: %w", err)
		}
	}
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return os.Rename(tmp, fs.filePath)
}

func (fs *FileStore) UpsertArticle(_ context.Context, a news.Article) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now()
	rec, exists := fs.data.Articles[a.URL]
	if exists {
		if a.Summary != "" {
			rec.Summary = a.Summary
		}
		rec.Score = a.Score
		rec.UpdatedAt = now
	} else {
		// bodies stay out of the file; only what a rerun needs is kept
		a.Content = ""
		rec = articleRecord{Article: a, CreatedAt: now, UpdatedAt: now}
	}

	prev, had := fs.data.Articles[a.URL]
	fs.data.Articles[a.URL] = rec
	if err := fs.save(); err != nil {
		if had {
			fs.data.Articles[a.URL] = prev
		} else {
			delete(fs.data.Articles, a.URL)
		}
		return false, err
	}
	return !exists, nil
}

func (fs *FileStore) Exists(_ context.Context, url string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.data.Articles[url]
	return ok, nil
}

func (fs *FileStore) Article(_ context.Context, url string) (news.Article, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	rec, ok := fs.data.Articles[url]
	if !ok {
		return news.Article{}, ErrNotFound
	}
	return rec.Article, nil
}

func (fs *FileStore) SaveNewsletter(_ context.Context, n Newsletter) (int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n.ID = int64(len(fs.data.Newsletters)) + 1
	n.CreatedAt = fs.now()
	fs.data.Newsletters = append(fs.data.Newsletters, n)
	if err := fs.save(); err != nil {
		fs.data.Newsletters = fs.data.Newsletters[:len(fs.data.Newsletters)-1]
		return 0, err
	}
	return n.ID, nil
}

func (fs *FileStore) LogDelivery(_ context.Context, newsletterID int64, action, status, details string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now()
	if marksSent(action, status) {
		if i := newsletterID - 1; i >= 0 && i < int64(len(fs.data.Newsletters)) {
			fs.data.Newsletters[i].IsSent = true
			fs.data.Newsletters[i].SentAt = &now
		}
	}
	fs.data.Logs = append(fs.data.Logs, LogEntry{
		NewsletterID: newsletterID,
		Action:       action,
		Status:       status,
		Details:      details,
		CreatedAt:    now,
	})
	return fs.save()
}

func (fs *FileStore) Newsletter(_ context.Context, id int64) (Newsletter, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if i := id - 1; i >= 0 && i < int64(len(fs.data.Newsletters)) {
		return fs.data.Newsletters[i], nil
	}
	return Newsletter{}, ErrNotFound
}

func (fs *FileStore) Logs(_ context.Context, newsletterID int64) ([]LogEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	var out []LogEntry
	for _, e := range fs.data.Logs {
		if e.NewsletterID == newsletterID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (fs *FileStore) Close() error { return nil }

package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
)

func testArticle(url string) news.Article {
	return news.Article{
		Title:         "Agents with memory",
		URL:           url,
		Link:          url,
		Content:       "long body",
		Source:        "EXAMPLE",
		Category:      "development",
		PublishedDate: "Jan 15, 2025",
		Score:         0.8,
		Image:         "https://img.example.com/a.jpg",
	}
}

// runStoreSuite checks the behavior every backend shares.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("upsert inserts then updates", func(t *testing.T) {
		s := open(t)
		a := testArticle("https://example.com/upsert")

		inserted, err := s.UpsertArticle(ctx, a)
		require.NoError(t, err)
		assert.True(t, inserted)

		a.Summary = "<p>summary</p>"
		a.Score = 0.9
		a.Title = "ignored on update"
		inserted, err = s.UpsertArticle(ctx, a)
		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := s.Article(ctx, a.URL)
		require.NoError(t, err)
		assert.Equal(t, "Agents with memory", got.Title)
		assert.Equal(t, "<p>summary</p>", got.Summary)
		assert.InDelta(t, 0.9, got.Score, 1e-9)
		assert.Equal(t, "development", got.Category)
	})

	t.Run("empty summary keeps stored one", func(t *testing.T) {
		s := open(t)
		a := testArticle("https://example.com/keep")
		a.Summary = "<p>first</p>"
		_, err := s.UpsertArticle(ctx, a)
		require.NoError(t, err)

		a.Summary = ""
		_, err = s.UpsertArticle(ctx, a)
		require.NoError(t, err)

		got, err := s.Article(ctx, a.URL)
		require.NoError(t, err)
		assert.Equal(t, "<p>first</p>", got.Summary)
	})

	t.Run("exists", func(t *testing.T) {
		s := open(t)
		ok, err := s.Exists(ctx, "https://example.com/nope")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.UpsertArticle(ctx, testArticle("https://example.com/yes"))
		require.NoError(t, err)
		ok, err = s.Exists(ctx, "https://example.com/yes")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = s.Article(ctx, "https://example.com/nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent upserts create one row", func(t *testing.T) {
		s := open(t)
		a := testArticle("https://example.com/race")

		var wg sync.WaitGroup
		results := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inserted, err := s.UpsertArticle(ctx, a)
				assert.NoError(t, err)
				results <- inserted
			}()
		}
		wg.Wait()
		close(results)

		inserts := 0
		for r := range results {
			if r {
				inserts++
			}
		}
		assert.Equal(t, 1, inserts)
	})

	t.Run("newsletter and delivery log", func(t *testing.T) {
		s := open(t)
		id, err := s.SaveNewsletter(ctx, Newsletter{Title: "AI & ML Weekly", ContentHTML: "<html></html>", TotalArticles: 4, VideoCount: 1})
		require.NoError(t, err)
		assert.Positive(t, id)

		n, err := s.Newsletter(ctx, id)
		require.NoError(t, err)
		assert.False(t, n.IsSent)
		assert.Nil(t, n.SentAt)
		assert.Equal(t, 4, n.TotalArticles)

		require.NoError(t, s.LogDelivery(ctx, id, "email", StatusFailed, "timeout"))
		n, err = s.Newsletter(ctx, id)
		require.NoError(t, err)
		assert.False(t, n.IsSent)

		require.NoError(t, s.LogDelivery(ctx, id, ActionSent, StatusSuccess, "Sent to 3 recipients"))
		n, err = s.Newsletter(ctx, id)
		require.NoError(t, err)
		assert.True(t, n.IsSent)
		assert.NotNil(t, n.SentAt)

		logs, err := s.Logs(ctx, id)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "email", logs[0].Action)
		assert.Equal(t, "Sent to 3 recipients", logs[1].Details)

		_, err = s.Newsletter(ctx, id+100)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFileStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewFileStore(filepath.Join(t.TempDir(), "store", "store.json"), logger.Discard())
		require.NoError(t, err)
		return s
	})
}

func TestFileStore_Reload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewFileStore(path, logger.Discard())
	require.NoError(t, err)
	_, err = s.UpsertArticle(ctx, testArticle("https://example.com/persist"))
	require.NoError(t, err)
	_, err = s.SaveNewsletter(ctx, Newsletter{Title: "t", ContentHTML: "x"})
	require.NoError(t, err)

	s2, err := NewFileStore(path, logger.Discard())
	require.NoError(t, err)
	ok, err := s2.Exists(ctx, "https://example.com/persist")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s2.Article(ctx, "https://example.com/persist")
	require.NoError(t, err)
	assert.Empty(t, got.Content, "bodies are not persisted")

	id, err := s2.SaveNewsletter(ctx, Newsletter{Title: "t2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestSQLite(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "news.db"), logger.Discard())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:17.5",
		postgres.WithDatabase("ainews_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runStoreSuite(t, func(t *testing.T) Store {
		s, err := NewPostgres(ctx, connStr, logger.Discard())
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = s.db.Exec(ctx, "TRUNCATE TABLE newsletter_logs, newsletters, articles RESTART IDENTITY CASCADE")
			_ = s.Close()
		})
		return s
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(context.Background(), &config.Config{StorageBackend: "file", StoreFilePath: filepath.Join(dir, "s.json")}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(context.Background(), &config.Config{StorageBackend: "sqlite", SQLitePath: filepath.Join(dir, "s.db")}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), &config.Config{StorageBackend: "mongo"}, logger.Discard())
	assert.ErrorIs(t, err, config.ErrUnknownStorage)
}

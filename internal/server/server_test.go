package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/storage"
)

type fakeReader struct {
	newsletters map[int64]storage.Newsletter
	logs        map[int64][]storage.LogEntry
	err         error
}

func (f *fakeReader) Newsletter(_ context.Context, id int64) (storage.Newsletter, error) {
	if f.err != nil {
		return storage.Newsletter{}, f.err
	}
	n, ok := f.newsletters[id]
	if !ok {
		return storage.Newsletter{}, storage.ErrNotFound
	}
	return n, nil
}

func (f *fakeReader) Logs(_ context.Context, id int64) ([]storage.LogEntry, error) {
	return f.logs[id], nil
}

func do(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	m := metrics.New()
	s := New("0", m, nil, logger.Discard())

	rec := do(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	m.SetError("search failed")
	rec = do(t, s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "search failed")
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	m.AddResultsSeen(12)
	m.IncrementRejection("too_short")
	s := New("0", m, nil, logger.Discard())

	rec := do(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 12, body["results_seen"])
	assert.Equal(t, map[string]any{"too_short": float64(1)}, body["rejections"])
}

func TestNewsletterRoute(t *testing.T) {
	sent := time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)
	store := &fakeReader{
		newsletters: map[int64]storage.Newsletter{
			7: {ID: 7, Title: "AI Weekly", ContentHTML: "<html>big</html>", TotalArticles: 4, IsSent: true, SentAt: &sent},
		},
		logs: map[int64][]storage.LogEntry{
			7: {{NewsletterID: 7, Action: storage.ActionSent, Status: storage.StatusSuccess, Details: "Sent to 3 recipients"}},
		},
	}

	tests := []struct {
		name     string
		reader   NewsletterReader
		path     string
		wantCode int
		wantBody string
	}{
		{"found", store, "/newsletters/7", http.StatusOK, "Sent to 3 recipients"},
		{"missing", store, "/newsletters/8", http.StatusNotFound, "newsletter not found"},
		{"bad id", store, "/newsletters/abc", http.StatusBadRequest, "validation error"},
		{"zero id", store, "/newsletters/0", http.StatusBadRequest, "positive integer"},
		{"no store", nil, "/newsletters/7", http.StatusNotFound, "no store configured"},
		{"store failure", &fakeReader{err: errors.New("db down")}, "/newsletters/7", http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, New("0", metrics.New(), tt.reader, logger.Discard()), tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "<html>big</html>")
		})
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	s := New("0", metrics.New(), nil, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(GracefulShutdownTimeout):
		t.Fatal("server did not stop")
	}
}

package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/email"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/render"
	"github.com/deusflow/ainews/internal/storage"
)

type querySearcher map[string][]news.RawResult

func (q querySearcher) Search(_ context.Context, req news.SearchRequest) (news.SearchResponse, error) {
	return news.SearchResponse{Results: q[req.Query]}, nil
}

type memStore struct {
	mu          sync.Mutex
	articles    map[string]news.Article
	newsletters []storage.Newsletter
	logs        []storage.LogEntry
	saveErr     error
}

func newMemStore() *memStore { return &memStore{articles: make(map[string]news.Article)} }

func (m *memStore) UpsertArticle(_ context.Context, a news.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.articles[a.URL]
	m.articles[a.URL] = a
	return !ok, nil
}

func (m *memStore) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.articles[url]
	return ok, nil
}

func (m *memStore) SaveNewsletter(_ context.Context, n storage.Newsletter) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.newsletters = append(m.newsletters, n)
	return int64(len(m.newsletters)), nil
}

func (m *memStore) LogDelivery(_ context.Context, id int64, action, status, details string) error {
	m.logs = append(m.logs, storage.LogEntry{NewsletterID: id, Action: action, Status: status, Details: details})
	return nil
}

type stubSummarizer struct{ err error }

func (s stubSummarizer) Summarize(_ context.Context, _, category string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "<p>Summary for " + category + "</p>", nil
}

type stubMailer struct {
	got  email.Message
	to   []string
	fail error
}

func (s *stubMailer) Send(_ context.Context, msg email.Message, recipients []string) (email.Result, error) {
	s.got, s.to = msg, recipients
	if s.fail != nil {
		return email.Result{}, s.fail
	}
	return email.Result{Sent: len(recipients), MessageIDs: []string{"m1"}}, nil
}

type stubAnnouncer struct{ data *render.Data }

func (s *stubAnnouncer) Announce(_ context.Context, d render.Data) error {
	s.data = &d
	return errors.New("telegram down")
}

type countingEnricher struct{ calls int }

func (c *countingEnricher) Enrich(_ context.Context, e *news.Edition, _ int) int {
	c.calls++
	return len(e.Articles())
}

var fixedNow = time.Date(2025, 1, 5, 9, 30, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	cur := config.Curation{
		Categories: []config.Category{
			{Name: "development", Label: "Latest Developments", Query: "dev query", MaxResults: 5,
				Keywords: []string{"llm", "agent"}, MinKeywordMatches: 2},
			{Name: "research", Label: "Research Papers", Query: "research query", MaxResults: 5,
				Keywords: []string{"paper", "benchmark"}, MinKeywordMatches: 2},
		},
		Quality: config.Quality{MinWords: 20, SpamThreshold: 2},
		Tools: config.Tools{Cap: 4, Min: 2, DescriptionMax: 150, Fallback: []config.ToolEntry{
			{Name: "LangChain", Description: "Framework for LLM apps.", Link: "https://www.langchain.com"},
		}},
		DefaultImageKeyword: "technology",
		FallbackSource:      "GENAI NEWS",
	}
	return &config.Config{
		SearchTimeout:    time.Second,
		NewsletterTitle:  "AI & ML Weekly Newsletter",
		FeedbackURL:      "#",
		OutputDir:        t.TempDir(),
		LogoPath:         "/missing/logo.jpg",
		EnrichBelowWords: 120,
		SendEmail:        true,
		Recipients:       []string{"a@example.com", "bad", "b@example.com"},
		Curation:         cur,
	}
}

func filler(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func testSearcher() querySearcher {
	return querySearcher{
		"dev query": {
			{Title: "New llm agent released", URL: "https://dev.example.com/a", Content: "llm agent news. " + filler(30), Score: 0.9},
			{Title: "Second llm agent", URL: "https://dev.example.com/b", Content: "llm agent story. " + filler(30), Score: 0.4},
		},
		"research query": {
			{Title: "A benchmark paper", URL: "https://arxiv.org/abs/1", Content: "paper with a benchmark. " + filler(30), Score: 0.7},
		},
	}
}

func newTestApp(cfg *config.Config, d Deps) *App {
	d.Logger = logger.Discard()
	d.Now = func() time.Time { return fixedNow }
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return New(cfg, d)
}

func TestRun_FullPipeline(t *testing.T) {
	cfg := testConfig(t)
	store := newMemStore()
	mailer := &stubMailer{}
	announcer := &stubAnnouncer{}
	enricher := &countingEnricher{}
	m := metrics.New()

	res, err := newTestApp(cfg, Deps{
		Searcher:   testSearcher(),
		Store:      store,
		Summarizer: stubSummarizer{},
		Enricher:   enricher,
		Mailer:     mailer,
		Announcer:  announcer,
		Metrics:    m,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Edition.TotalArticles)
	assert.Equal(t, "https://dev.example.com/a", res.Edition.Get("development").URL)
	assert.Contains(t, res.Edition.Get("research").Summary, "Summary for research")
	assert.Equal(t, 1, enricher.calls)

	page, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Summary for development")
	assert.Contains(t, string(page), "<style>")

	assert.Len(t, store.articles, 2)
	require.Len(t, store.newsletters, 1)
	assert.Equal(t, "🤖 AI Newsletter - January 05, 2025", store.newsletters[0].Title)
	assert.Equal(t, int64(1), res.NewsletterID)
	require.Len(t, store.logs, 1)
	assert.Equal(t, storage.LogEntry{NewsletterID: 1, Action: "sent", Status: "success", Details: "Sent to 2 recipients"}, store.logs[0])

	assert.Equal(t, []string{"a@example.com", "b@example.com"}, mailer.to)
	assert.Equal(t, 2, res.EmailsSent)
	require.NotNil(t, announcer.data, "announcer failure must not abort the run")
	assert.Equal(t, 2, announcer.data.TotalArticles)

	stats := m.GetStats()
	assert.EqualValues(t, 2, stats["successful_summaries"])
	assert.EqualValues(t, 2, stats["emails_sent"])
	assert.Equal(t, true, stats["is_healthy"])
}

func TestRun_NoWinners(t *testing.T) {
	cfg := testConfig(t)
	m := metrics.New()

	res, err := newTestApp(cfg, Deps{Searcher: querySearcher{}, Metrics: m}).Run(context.Background())
	assert.ErrorIs(t, err, news.ErrNoWinners)
	assert.Empty(t, res.OutputPath)
	assert.False(t, m.Healthy())

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_SummaryFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.SendEmail = false
	m := metrics.New()

	res, err := newTestApp(cfg, Deps{
		Searcher:   testSearcher(),
		Summarizer: stubSummarizer{err: errors.New("model unavailable")},
		Metrics:    m,
	}).Run(context.Background())
	require.NoError(t, err)

	for _, a := range res.Edition.Articles() {
		assert.True(t, strings.HasPrefix(a.Summary, "<p>"), a.Summary)
		assert.True(t, strings.HasSuffix(a.Summary, "...</p>"), a.Summary)
	}
	assert.EqualValues(t, 2, m.GetStats()["failed_summaries"])
	assert.Zero(t, res.NewsletterID)
}

func TestRun_EmailFailureIsLogged(t *testing.T) {
	cfg := testConfig(t)
	store := newMemStore()

	res, err := newTestApp(cfg, Deps{
		Searcher: testSearcher(),
		Store:    store,
		Mailer:   &stubMailer{fail: errors.New("resend returned 500")},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.EmailsSent)
	require.Len(t, store.logs, 1)
	assert.Equal(t, storage.StatusFailed, store.logs[0].Status)
	assert.Contains(t, store.logs[0].Details, "resend returned 500")
}

func TestRun_SaveFailureSkipsDeliveryLog(t *testing.T) {
	cfg := testConfig(t)
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	mailer := &stubMailer{}

	res, err := newTestApp(cfg, Deps{Searcher: testSearcher(), Store: store, Mailer: mailer}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.NewsletterID)
	assert.Equal(t, 2, res.EmailsSent)
	assert.Empty(t, store.logs)
}

func TestRun_SkipSentArticles(t *testing.T) {
	cfg := testConfig(t)
	cfg.SendEmail = false
	store := newMemStore()
	store.articles["https://dev.example.com/a"] = news.Article{URL: "https://dev.example.com/a"}

	cfg.SkipSentArticles = false
	res, err := newTestApp(cfg, Deps{Searcher: testSearcher(), Store: store}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://dev.example.com/a", res.Edition.Get("development").URL)

	cfg.SkipSentArticles = true
	res, err = newTestApp(cfg, Deps{Searcher: testSearcher(), Store: store}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://dev.example.com/b", res.Edition.Get("development").URL)
}

func TestRun_TestModeSubject(t *testing.T) {
	cfg := testConfig(t)
	cfg.EmailTestMode = true
	mailer := &stubMailer{}

	_, err := newTestApp(cfg, Deps{Searcher: testSearcher(), Mailer: mailer}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "🧪 TEST: AI Newsletter - January 05, 2025", mailer.got.Subject)
}

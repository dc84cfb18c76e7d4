// Package app wires the curation pipeline into one run: search, select,
// enrich, summarize, record, render and deliver.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/email"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/render"
	"github.com/deusflow/ainews/internal/storage"
	"github.com/deusflow/ainews/internal/summarize"
)

type Store interface {
	news.ArticleStore
	storage.NewsletterStore
}

type Enricher interface {
	Enrich(ctx context.Context, e *news.Edition, belowWords int) int
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message, recipients []string) (email.Result, error)
}

type Announcer interface {
	Announce(ctx context.Context, d render.Data) error
}

// Deps are the collaborators of a run. Only Searcher is required; a nil
// collaborator switches its step off.
type Deps struct {
	Searcher   news.Searcher
	Store      Store
	Summarizer summarize.Summarizer
	Enricher   Enricher
	Mailer     Mailer
	Announcer  Announcer
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

type App struct {
	cfg  *config.Config
	deps Deps
}

// Result describes what a run produced.
type Result struct {
	RunID        string
	Edition      *news.Edition
	OutputPath   string
	NewsletterID int64
	EmailsSent   int
}

func New(cfg *config.Config, deps Deps) *App {
	deps.Logger = logger.OrDefault(deps.Logger)
	if deps.Metrics == nil {
		deps.Metrics = metrics.Global
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &App{cfg: cfg, deps: deps}
}

// Run executes one newsletter cycle. It fails when nothing could be
// curated or the newsletter could not be rendered and written. Storage
// and delivery problems after that point are logged only.
func (a *App) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	l := a.deps.Logger.With("run_id", res.RunID)
	m := a.deps.Metrics

	start := a.deps.Now()
	defer func() { m.RecordProcessingTime(a.deps.Now().Sub(start)) }()

	l.Info("Starting newsletter run",
		"categories", len(a.cfg.Curation.Categories),
		"search", a.cfg.SearchProvider,
		"storage", a.cfg.StorageBackend,
	)

	var gate *news.Gate
	if a.deps.Store != nil {
		gate = news.NewGate(a.deps.Store,
			news.SkipSeen(a.cfg.SkipSentArticles),
			news.GateLogger(l),
			news.GateMetrics(m),
		)
	}

	agg := news.NewAggregator(a.deps.Searcher, a.cfg.Curation,
		news.WithSearchTimeout(a.cfg.SearchTimeout),
		news.WithGate(gate),
		news.WithToolCurator(news.NewToolCurator(a.deps.Searcher, a.cfg.Curation.Tools, l)),
		news.WithLogger(l),
		news.WithMetrics(m),
		news.WithClock(a.deps.Now),
	)

	edition := agg.Run(ctx)
	res.Edition = edition
	if edition.Empty() {
		m.SetError(news.ErrNoWinners.Error())
		l.Error("No articles curated, aborting run")
		return res, news.ErrNoWinners
	}

	if a.deps.Enricher != nil && a.cfg.EnrichBelowWords > 0 {
		n := a.deps.Enricher.Enrich(ctx, edition, a.cfg.EnrichBelowWords)
		l.Info("Enriched thin articles", "count", n)
	}

	a.summarize(ctx, edition, l)

	if gate != nil {
		stats, err := gate.Record(ctx, edition)
		if err != nil {
			l.Error("Failed to record some winners", "error", err)
		}
		l.Info("Recorded winners", "inserted", stats.Inserted, "updated", stats.Updated, "skipped", stats.Skipped)
	}

	now := a.deps.Now()
	data := render.NewData(edition, a.cfg.Curation.Categories, a.cfg.NewsletterTitle, a.cfg.FeedbackURL, now)
	page, err := a.render(data)
	if err != nil {
		m.SetError(err.Error())
		return res, err
	}

	res.OutputPath, err = render.WriteFile(a.cfg.OutputDir, page, now)
	if err != nil {
		m.SetError(err.Error())
		return res, err
	}
	l.Info("Newsletter written", "path", res.OutputPath)

	res.NewsletterID = a.save(ctx, edition, page, now, l)
	res.EmailsSent = a.deliver(ctx, res.NewsletterID, page, now, l)
	a.announce(ctx, data, l)

	m.SetLastRun()
	l.Info("Newsletter run finished",
		"articles", edition.TotalArticles,
		"videos", edition.VideoCount,
		"emails_sent", res.EmailsSent,
		"duration", a.deps.Now().Sub(start),
	)
	return res, nil
}

// summarize fills Summary for every winner. Model failures fall back to
// the leading text of the article.
func (a *App) summarize(ctx context.Context, e *news.Edition, l *slog.Logger) {
	for _, art := range e.Articles() {
		text := art.Content
		if strings.TrimSpace(text) == "" {
			text = art.Title
		}

		if a.deps.Summarizer == nil {
			art.Summary = summarize.Fallback(text)
			continue
		}

		raw, err := a.deps.Summarizer.Summarize(ctx, text, art.Category)
		if err == nil {
			art.Summary, err = summarize.Clean(raw)
		}
		if err != nil {
			l.Warn("Summary failed, using fallback", "category", art.Category, "url", art.URL, "error", err)
			a.deps.Metrics.IncrementFailedSummaries()
			art.Summary = summarize.Fallback(text)
			continue
		}
		a.deps.Metrics.IncrementSuccessfulSummaries()
	}
}

func (a *App) render(d render.Data) (string, error) {
	page, err := render.Render(d)
	if err != nil {
		return "", err
	}
	page, err = render.PostProcess(page, render.Assets{CSS: render.CSS(), LogoPath: a.cfg.LogoPath})
	if err != nil {
		return "", err
	}
	return page, nil
}

func (a *App) save(ctx context.Context, e *news.Edition, page string, now time.Time, l *slog.Logger) int64 {
	if a.deps.Store == nil {
		return 0
	}
	id, err := a.deps.Store.SaveNewsletter(ctx, storage.Newsletter{
		Title:         a.subject(now),
		ContentHTML:   page,
		TotalArticles: e.TotalArticles,
		VideoCount:    e.VideoCount,
		CreatedAt:     now,
	})
	if err != nil {
		l.Error("Failed to save newsletter", "error", err)
		return 0
	}
	l.Info("Newsletter saved", "newsletter_id", id)
	return id
}

func (a *App) deliver(ctx context.Context, newsletterID int64, page string, now time.Time, l *slog.Logger) int {
	if !a.cfg.SendEmail || a.deps.Mailer == nil {
		l.Info("Email sending disabled")
		return 0
	}

	recipients := email.ParseRecipients(strings.Join(a.cfg.Recipients, ","))
	result, err := a.deps.Mailer.Send(ctx, email.Message{Subject: a.subject(now), HTML: page}, recipients)
	a.deps.Metrics.AddEmailsSent(result.Sent)

	status, details := storage.StatusSuccess, fmt.Sprintf("Sent to %d recipients", result.Sent)
	if err != nil {
		l.Error("Email delivery failed", "sent", result.Sent, "recipients", len(recipients), "error", err)
		status, details = storage.StatusFailed, err.Error()
	} else {
		l.Info("Newsletter emailed", "recipients", result.Sent)
	}

	if a.deps.Store != nil && newsletterID > 0 {
		if err := a.deps.Store.LogDelivery(ctx, newsletterID, storage.ActionSent, status, details); err != nil {
			l.Error("Failed to log delivery", "newsletter_id", newsletterID, "error", err)
		}
	}
	return result.Sent
}

func (a *App) announce(ctx context.Context, d render.Data, l *slog.Logger) {
	if a.deps.Announcer == nil {
		return
	}
	if err := a.deps.Announcer.Announce(ctx, d); err != nil {
		l.Error("Telegram announcement failed", "error", err)
	}
}

func (a *App) subject(now time.Time) string {
	if a.cfg.EmailTestMode {
		return email.PreviewSubject(now)
	}
	return email.DefaultSubject(now)
}

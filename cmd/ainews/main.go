package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/deusflow/ainews/internal/app"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/email"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/retry"
	"github.com/deusflow/ainews/internal/rss"
	"github.com/deusflow/ainews/internal/scraper"
	"github.com/deusflow/ainews/internal/search"
	"github.com/deusflow/ainews/internal/server"
	"github.com/deusflow/ainews/internal/storage"
	"github.com/deusflow/ainews/internal/summarize"
	"github.com/deusflow/ainews/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	l := logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, l)
	stop()
	if err != nil {
		if errors.Is(err, news.ErrNoWinners) {
			l.Warn("Nothing to send this cycle")
		} else {
			l.Error("Newsletter run failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, l *slog.Logger) error {
	deps := app.Deps{
		Searcher: buildSearcher(cfg, l),
		Enricher: scraper.New(cfg.SearchTimeout, cfg.ScrapeConcurrency, l),
		Metrics:  metrics.Global,
		Logger:   l,
	}

	var reader server.NewsletterReader
	store, err := storage.Open(ctx, cfg, l)
	if err != nil {
		l.Warn("Storage unavailable, running without dedup history", "backend", cfg.StorageBackend, "error", err)
	} else {
		defer store.Close()
		deps.Store = store
		reader = store
	}

	summarizer, closeSummarizer, err := summarize.FromConfig(ctx, cfg, l)
	if err != nil {
		l.Warn("Summarizer unavailable, using text fallback", "summarizer", cfg.Summarizer, "error", err)
	} else {
		defer closeSummarizer()
		if summarizer != nil {
			deps.Summarizer = summarizer
		}
	}

	rc := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	if cfg.SendEmail {
		deps.Mailer = email.NewResend(email.Config{
			APIKey:     cfg.ResendAPIKey,
			From:       cfg.SenderEmail,
			BatchSize:  cfg.EmailBatchSize,
			BatchDelay: cfg.EmailBatchDelay,
			Retry:      rc,
		}, l)
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		announcer, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID, rc, l)
		if err != nil {
			l.Warn("Telegram disabled", "error", err)
		} else {
			deps.Announcer = announcer
		}
	}

	var wg sync.WaitGroup
	serverCtx, stopServer := context.WithCancel(ctx)
	defer func() {
		stopServer()
		wg.Wait()
	}()
	if cfg.EnableMonitoring {
		srv := server.New(cfg.MonitoringPort, metrics.Global, reader, l)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(serverCtx); err != nil {
				l.Error("Monitoring server error", "error", err)
			}
		}()
	}

	_, err = app.New(cfg, deps).Run(ctx)
	return err
}

func buildSearcher(cfg *config.Config, l *slog.Logger) news.Searcher {
	feeds := rss.NewSearcher(cfg.Curation.Feeds, cfg.SearchTimeout, l)
	if cfg.SearchProvider == "rss" {
		return feeds
	}

	tavily := search.NewTavily(cfg.TavilyAPIKey, cfg.SearchTimeout, search.WithLogger(l))
	if cfg.SearchFallbackRSS && len(cfg.Curation.Feeds) > 0 {
		return search.WithFallback(tavily, feeds, l)
	}
	return tavily
}

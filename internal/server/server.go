// Package server exposes run health, counters and stored newsletters over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/storage"
)

const GracefulShutdownTimeout = 10 * time.Second

// NewsletterReader is the read side of the store. It may be nil, in which
// case newsletter routes answer 404.
type NewsletterReader interface {
	Newsletter(ctx context.Context, id int64) (storage.Newsletter, error)
	Logs(ctx context.Context, newsletterID int64) ([]storage.LogEntry, error)
}

type Server struct {
	Echo *echo.Echo

	port    string
	metrics *metrics.Metrics
	store   NewsletterReader
	logger  *slog.Logger
}

func New(port string, m *metrics.Metrics, store NewsletterReader, l *slog.Logger) *Server {
	if m == nil {
		m = metrics.Global
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Echo:    e,
		port:    port,
		metrics: m,
		store:   store,
		logger:  logger.OrDefault(l),
	}

	e.Use(requestLogger(s.logger))
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = errorHandler(s.logger)

	e.GET("/health", s.health)
	e.GET("/metrics", s.stats)
	e.GET("/newsletters/:id", s.newsletter)
	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting monitoring server", "port", s.port)
		if err := s.Echo.Start(":" + s.port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("monitoring server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown monitoring server: %w", err)
	}
	s.logger.Info("Monitoring server stopped")
	return nil
}

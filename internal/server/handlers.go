package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/deusflow/ainews/internal/storage"
)

func (s *Server) health(c echo.Context) error {
	stats := s.metrics.GetStats()

	code, status := http.StatusOK, "ok"
	if !s.metrics.Healthy() {
		code, status = http.StatusServiceUnavailable, "error"
	}
	return c.JSON(code, map[string]any{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.metrics.GetStats())
}

type newsletterResponse struct {
	storage.Newsletter
	Logs []storage.LogEntry `json:"logs"`
}

func (s *Server) newsletter(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return NewValidationWrap("newsletter id must be a positive integer", err)
	}
	if s.store == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no store configured")
	}

	ctx := c.Request().Context()
	n, err := s.store.Newsletter(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "newsletter not found")
	}
	if err != nil {
		return err
	}
	logs, err := s.store.Logs(ctx, id)
	if err != nil {
		return err
	}
	// the listing is metadata only
	n.ContentHTML = ""
	return c.JSON(http.StatusOK, newsletterResponse{Newsletter: n, Logs: logs})
}

// Package email delivers the newsletter through the Resend API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/retry"
)

const ResendEndpoint = "https://api.resend.com/emails"

var ErrNoRecipients = errors.New("no valid recipients")

type Message struct {
	Subject string
	HTML    string
}

type Result struct {
	Sent       int
	MessageIDs []string
}

type Config struct {
	APIKey     string
	From       string
	BatchSize  int
	BatchDelay time.Duration
	Retry      retry.RetryConfig
}

type Resend struct {
	cfg      Config
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewResend(cfg Config, l *slog.Logger) *Resend {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Resend{
		cfg:      cfg,
		endpoint: ResendEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.OrDefault(l),
	}
}

// WithEndpoint points the sender at another URL, for tests.
func (r *Resend) WithEndpoint(u string) *Resend {
	r.endpoint = u
	return r
}

// Send mails msg to recipients in batches. A failed batch does not stop
// the remaining ones; the returned error joins every batch failure.
func (r *Resend) Send(ctx context.Context, msg Message, recipients []string) (Result, error) {
	if len(recipients) == 0 {
		return Result{}, ErrNoRecipients
	}

	var (
		res  Result
		errs []error
	)
	for start := 0; start < len(recipients); start += r.cfg.BatchSize {
		if start > 0 && r.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return res, errors.Join(append(errs, ctx.Err())...)
			case <-time.After(r.cfg.BatchDelay):
			}
		}

		end := min(start+r.cfg.BatchSize, len(recipients))
		batch := recipients[start:end]

		var id string
		err := retry.WithRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
			var err error
			id, err = r.post(ctx, msg, batch)
			return err
		})
		if err != nil {
			r.logger.Error("Email batch failed", "batch_start", start, "size", len(batch), "error", err)
			errs = append(errs, fmt.Errorf("batch %d-%d: %w", start, end, err))
			continue
		}

		res.Sent += len(batch)
		res.MessageIDs = append(res.MessageIDs, id)
		r.logger.Info("Email batch sent", "recipients", len(batch), "message_id", id)
	}
	return res, errors.Join(errs...)
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (r *Resend) post(ctx context.Context, msg Message, to []string) (string, error) {
	body, err := json.Marshal(resendRequest{From: r.cfg.From, To: to, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("encode email: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("resend returned %d: %s", resp.StatusCode, bytes.TrimSpace(text))
		// client errors won't fix themselves, except throttling
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		r.logger.Warn("Could not decode resend response", "error", err)
	}
	return out.ID, nil
}

// ParseRecipients splits a comma separated list, dropping blanks,
// malformed addresses and duplicates.
func ParseRecipients(csv string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(csv, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			continue
		}
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

func DefaultSubject(now time.Time) string {
	return "🤖 AI Newsletter - " + now.Format("January 02, 2006")
}

func PreviewSubject(now time.Time) string {
	return "🧪 TEST: AI Newsletter - " + now.Format("January 02, 2006")
}

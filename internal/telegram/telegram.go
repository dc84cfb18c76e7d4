// Package telegram announces a finished edition in a Telegram chat or channel.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/render"
	"github.com/deusflow/ainews/internal/retry"
)

// MaxMessageRunes stays under Telegram's 4096 character cap.
const MaxMessageRunes = 4000

const separator = "━━━━━━━━━━━━━━━━━━━━"

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Announcer struct {
	bot    sender
	chatID string
	retry  retry.RetryConfig
	logger *slog.Logger
}

// New connects to the Bot API. The token is verified with a getMe call.
func New(token, chatID string, rc retry.RetryConfig, l *slog.Logger) (*Announcer, error) {
	if token == "" || chatID == "" {
		return nil, errors.New("telegram token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newAnnouncer(bot, chatID, rc, l), nil
}

func newAnnouncer(bot sender, chatID string, rc retry.RetryConfig, l *slog.Logger) *Announcer {
	return &Announcer{bot: bot, chatID: chatID, retry: rc, logger: logger.OrDefault(l)}
}

// Announce posts the edition headlines.
func (a *Announcer) Announce(ctx context.Context, d render.Data) error {
	if d.TotalArticles == 0 {
		return news.ErrNoWinners
	}
	msg, err := a.message(FormatEdition(d, MaxMessageRunes))
	if err != nil {
		return err
	}

	attempt := 0
	err = retry.WithRetry(ctx, a.retry, func(context.Context) error {
		attempt++
		_, err := a.bot.Send(msg)
		if err == nil {
			return nil
		}
		a.logger.Warn("Telegram send failed", "attempt", attempt, "error", err)
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.Code != 429 && tgErr.Code < 500 {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("telegram announce: %w", err)
	}
	a.logger.Info("Edition announced on Telegram", "chat", a.chatID, "attempts", attempt)
	return nil
}

// message addresses "@name" as a channel and anything else as a numeric chat.
func (a *Announcer) message(text string) (tgbotapi.MessageConfig, error) {
	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(a.chatID, "@") {
		msg = tgbotapi.NewMessageToChannel(a.chatID, text)
	} else {
		id, err := strconv.ParseInt(a.chatID, 10, 64)
		if err != nil {
			return msg, fmt.Errorf("telegram chat id %q: %w", a.chatID, err)
		}
		msg = tgbotapi.NewMessage(id, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return msg, nil
}

// FormatEdition renders the headline list in Telegram HTML. Items are
// dropped from the end until the text fits within limit runes.
func FormatEdition(d render.Data, limit int) string {
	var items []string
	n := 1
	for _, s := range d.Sections {
		if s.Article == nil {
			continue
		}
		items = append(items, formatItem(d, s, n))
		n++
	}

	for {
		text := compose(d, items)
		if utf8.RuneCountInString(text) <= limit || len(items) <= 1 {
			return text
		}
		items = items[:len(items)-1]
	}
}

func compose(d render.Data, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 <b>%s</b>\n", html.EscapeString(d.NewsletterTitle))
	fmt.Fprintf(&b, "📅 %s\n", d.CurrentDate)
	b.WriteString(separator + "\n\n")
	for _, it := range items {
		b.WriteString(it)
	}
	if len(d.Tools) > 0 {
		b.WriteString("🛠 <b>Tools</b>: ")
		names := make([]string, 0, len(d.Tools))
		for _, t := range d.Tools {
			names = append(names, fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(t.Link), html.EscapeString(t.Name)))
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("\n")
	}
	b.WriteString(separator)
	return b.String()
}

func formatItem(d render.Data, s render.Section, n int) string {
	a := s.Article
	emoji := "📰"
	if a.IsVideo() {
		emoji = "🎬"
	}
	link := a.Link
	if a.IsVideo() {
		link = news.WatchURL(a.VideoID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%d. %s</b>\n", emoji, n, html.EscapeString(d.Label(s.Category)))
	if link != "" && link != news.PlaceholderURL {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(link), html.EscapeString(a.Title))
	} else {
		b.WriteString(html.EscapeString(a.Title))
	}
	if a.Source != "" {
		fmt.Fprintf(&b, " <i>(%s)</i>", html.EscapeString(a.Source))
	}
	b.WriteString("\n\n")
	return b.String()
}

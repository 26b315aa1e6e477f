// Package notify sends analysis summaries to a Telegram chat.
// Messages use MarkdownV2 and delivery is retried with linear backoff.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/quakelens/internal/models"
)

// maxClustersListed caps the clusters shown in a summary.
const maxClustersListed = 3

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Summary collects the results reported for one catalogue. Nil results are
// shown as unavailable with the matching reason, if any.
type Summary struct {
	Catalogue     string
	Events        int
	Dropped       int
	GeneratedAt   time.Time
	GR            *models.GRResult
	GRReason      string
	Completeness  *models.McResult
	McReason      string
	Temporal      *models.TemporalResult
	Moment        *models.MomentResult
}

// Send delivers the summary.
func (c *Client) Send(ctx context.Context, s Summary) error {
	return c.send(ctx, FormatMessage(s))
}

// SendError reports a failed analysis run.
func (c *Client) SendError(ctx context.Context, catalogue string, err error) error {
	message := fmt.Sprintf("⚠️ *Analysis failed* for %s\n\n`%s`",
		escapeMarkdownV2(catalogue), escapeMarkdownV2(err.Error()))
	return c.send(ctx, message)
}

func (c *Client) send(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// FormatMessage renders a summary as a MarkdownV2 message.
func FormatMessage(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🌏 *Seismicity summary: %s*\n", escapeMarkdownV2(s.Catalogue))
	if !s.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdownV2(s.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	}
	events := fmt.Sprintf("%d events", s.Events)
	if s.Dropped > 0 {
		events += fmt.Sprintf(" (%d invalid dropped)", s.Dropped)
	}
	fmt.Fprintf(&b, "%s\n\n", escapeMarkdownV2(events))

	if s.GR != nil {
		fmt.Fprintf(&b, "📉 b\\-value: *%s* \\(a %s, R² %s\\)\n",
			num(s.GR.BValue, 2), num(s.GR.AValue, 2), num(s.GR.RSquared, 3))
	} else {
		fmt.Fprintf(&b, "📉 b\\-value: unavailable%s\n", reason(s.GRReason))
	}

	if s.Completeness != nil {
		fmt.Fprintf(&b, "🎯 Mc: *%s* \\(%s of events above\\)\n",
			num(s.Completeness.Mc, 2), escapeMarkdownV2(fmt.Sprintf("%.0f%%", s.Completeness.Confidence*100)))
	} else {
		fmt.Fprintf(&b, "🎯 Mc: unavailable%s\n", reason(s.McReason))
	}

	if s.Moment != nil {
		fmt.Fprintf(&b, "💥 Total moment: %s N·m \\(Mw %s\\), largest %s M%s\n",
			escapeMarkdownV2(fmt.Sprintf("%.2e", s.Moment.TotalMoment)),
			num(s.Moment.TotalMomentMagnitude, 2),
			escapeMarkdownV2(s.Moment.LargestEvent.EventID),
			num(s.Moment.LargestEvent.Magnitude, 1))
	}

	if t := s.Temporal; t != nil {
		fmt.Fprintf(&b, "⏱ %s over %s\n",
			escapeMarkdownV2(fmt.Sprintf("%.2f events/day", t.EventsPerDay)),
			escapeMarkdownV2(formatSpan(t.TimeSpanDays)))
		fmt.Fprintf(&b, "🧩 %d clusters, %d clustered / %d background events\n",
			len(t.Clusters), t.ClusteredEvents, t.BackgroundEvents)

		clusters := append([]models.Cluster(nil), t.Clusters...)
		sort.SliceStable(clusters, func(i, j int) bool {
			return clusters[i].MaxMagnitude > clusters[j].MaxMagnitude
		})
		if len(clusters) > maxClustersListed {
			clusters = clusters[:maxClustersListed]
		}
		for i, c := range clusters {
			fmt.Fprintf(&b, "   %d\\. M%s %s, %d events, %s, %s\n",
				i+1,
				num(c.MaxMagnitude, 1),
				escapeMarkdownV2(string(c.ClusterType)),
				c.EventCount,
				escapeMarkdownV2(formatSpan(c.DurationDays)),
				escapeMarkdownV2(fmt.Sprintf("%.1f km", c.SpatialExtentKm)))
		}
	}

	return b.String()
}

func num(v float64, decimals int) string {
	return escapeMarkdownV2(strconv.FormatFloat(v, 'f', decimals, 64))
}

func reason(r string) string {
	if r == "" {
		return ""
	}
	return " \\(" + escapeMarkdownV2(r) + "\\)"
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatSpan formats a span given in days, switching to hours below a day.
func formatSpan(days float64) string {
	if days < 1 {
		return fmt.Sprintf("%dh", int(days*24))
	}
	return fmt.Sprintf("%.1fd", days)
}

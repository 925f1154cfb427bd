// Package notify pushes task outcomes to operators. The only transport for
// now is a Telegram chat; webhookd works fine with a nil notifier.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	humanrail "github.com/prime001/humanrail-sdk"
)

// Notifier announces terminal task transitions.
type Notifier interface {
	TaskTerminal(ctx context.Context, t *humanrail.Task) error
}

// Telegram sends task outcome messages to a single chat.
type Telegram struct {
	bot    *bot.Bot
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram notifier. The token is validated lazily on
// the first send.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: b, chatID: chatID, log: log}, nil
}

// TaskTerminal implements Notifier.
func (t *Telegram) TaskTerminal(ctx context.Context, task *humanrail.Task) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   formatTerminal(task),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.log.Debug("terminal notification sent", "task_id", task.ID, "status", string(task.Status))
	return nil
}

func formatTerminal(t *humanrail.Task) string {
	var icon string
	switch t.Status {
	case humanrail.TaskStatusVerified:
		icon = "✅"
	case humanrail.TaskStatusFailed:
		icon = "❌"
	case humanrail.TaskStatusCancelled:
		icon = "🚫"
	case humanrail.TaskStatusExpired:
		icon = "⏰"
	default:
		icon = "ℹ️"
	}

	msg := fmt.Sprintf("%s Task %s is %s (%s)", icon, t.ID, t.Status, t.TaskType)
	if t.FailureReason != "" {
		msg += "\nReason: " + t.FailureReason
	}
	if t.PayoutResult != nil {
		msg += fmt.Sprintf("\nPayout: %.2f %s via %s", t.PayoutResult.Amount, t.PayoutResult.Currency, t.PayoutResult.Rail)
	}
	return msg
}

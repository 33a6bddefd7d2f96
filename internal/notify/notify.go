// Package notify delivers alert reminders to the configured chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"remindbot/internal/alert"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

// Target is where reminders go plus the mention to prepend. It is swapped
// atomically on config reload.
type Target struct {
	// ChatID receives the reminders. Zero disables delivery.
	ChatID int64
	// Mention is prepended verbatim, e.g. "@oncall". Optional.
	Mention string
}

// Service implements alert.Sink over a chat adapter.
type Service struct {
	adapter kit.Adapter
	log     logx.Logger

	mu     sync.Mutex
	target Target
}

func New(adapter kit.Adapter, target Target, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		adapter: adapter,
		log:     log.With(logx.String("comp", "notify")),
		target:  target,
	}
}

// SetTarget swaps the delivery target. Safe under a running evaluator.
func (n *Service) SetTarget(t Target) {
	n.mu.Lock()
	n.target = t
	n.mu.Unlock()
}

func (n *Service) Send(ctx context.Context, a alert.Alert) error {
	n.mu.Lock()
	target := n.target
	n.mu.Unlock()

	if target.ChatID == 0 {
		return errors.New("no alert channel configured")
	}

	text := RenderReminderHTML(a, target.Mention)
	_, err := n.adapter.SendText(ctx, kit.ChatTarget{ChatID: target.ChatID}, text, &kit.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
	})
	if err != nil {
		n.log.Warn("reminder send failed",
			logx.String("alert", a.Name),
			logx.Int64("chat_id", target.ChatID),
			logx.Err(err))
		return err
	}
	n.log.Debug("reminder sent",
		logx.String("alert", a.Name),
		logx.Int64("chat_id", target.ChatID))
	return nil
}

// RenderReminderHTML builds the reminder message. mention, when set, goes
// on its own first line so the notification pings whoever it names.
func RenderReminderHTML(a alert.Alert, mention string) string {
	var b strings.Builder
	if m := strings.TrimSpace(mention); m != "" {
		b.WriteString(html.EscapeString(m))
		b.WriteString("\n")
	}
	b.WriteString("⏰ <b>Reminder</b>\n\n")
	b.WriteString(RenderAlertHTML(a))
	return b.String()
}

// RenderAlertHTML formats one alert as the shared info block used by the
// reminder message and the info command.
func RenderAlertHTML(a alert.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(a.Name))
	fmt.Fprintf(&b, "Due: <code>%s</code>\n", a.DueAt.Format(alert.DisplayDateFormat))
	if d := strings.TrimSpace(a.Description); d != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(d))
	}
	if c := strings.TrimSpace(a.CreatedBy); c != "" {
		fmt.Fprintf(&b, "<i>Added by %s</i>\n", html.EscapeString(c))
	}
	return b.String()
}

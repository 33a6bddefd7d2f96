package alerts

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"remindbot/internal/alert"
	"remindbot/internal/core"
	"remindbot/internal/notify"
	"remindbot/pkg/logx"
)

const usage = `/alert add <name> <date> [description]
/alert edit <name> <name|date|description> <value>
/alert remove <name>
/alert info <name>
/alert list

Dates: 31.12.2024 or 31.12.2024 18:00 (quote multi-word names)`

func (p *Plugin) Commands() []core.Command {
	return []core.Command{{
		Route:       "alert",
		Aliases:     []string{"alerts", "reminder"},
		Description: "manage reminder alerts",
		Usage:       usage,
		Access:      core.AccessEveryone,
		Handle:      p.handleAlert,
	}}
}

func (p *Plugin) handleAlert(ctx context.Context, req *core.Request) error {
	if len(req.Args) == 0 {
		return req.Reply(ctx, usage)
	}
	sub, args := strings.ToLower(req.Args[0]), req.Args[1:]

	switch sub {
	case "add":
		return p.cmdAdd(ctx, req, args)
	case "edit":
		return p.cmdEdit(ctx, req, args)
	case "remove", "delete":
		return p.cmdRemove(ctx, req, args)
	case "info", "show":
		return p.cmdInfo(ctx, req, args)
	case "list", "ls":
		return p.cmdList(ctx, req)
	default:
		return req.Reply(ctx, "unknown subcommand, see /help alert")
	}
}

func (p *Plugin) cmdAdd(ctx context.Context, req *core.Request, args []string) error {
	if len(args) < 2 {
		return req.Reply(ctx, "usage: /alert add <name> <date> [description]")
	}
	name, date := args[0], args[1]
	desc := strings.Join(args[2:], " ")

	// A trailing time token belongs to the date, not the description.
	if len(args) >= 3 && looksLikeTime(args[2]) {
		date = date + " " + args[2]
		desc = strings.Join(args[3:], " ")
	}

	a, err := p.deps.Alerts.Add(ctx, name, date, desc, req.FromName)
	if err != nil {
		return p.replyError(ctx, req, err)
	}
	return req.ReplyHTML(ctx, "Alert created.\n\n"+notify.RenderAlertHTML(a))
}

func (p *Plugin) cmdEdit(ctx context.Context, req *core.Request, args []string) error {
	if len(args) < 3 {
		return req.Reply(ctx, "usage: /alert edit <name> <name|date|description> <value>")
	}
	name, property := args[0], strings.ToLower(args[1])
	value := strings.Join(args[2:], " ")

	a, err := p.deps.Alerts.Edit(ctx, name, property, value)
	if err != nil {
		return p.replyError(ctx, req, err)
	}
	return req.ReplyHTML(ctx, "Alert updated.\n\n"+notify.RenderAlertHTML(a))
}

func (p *Plugin) cmdRemove(ctx context.Context, req *core.Request, args []string) error {
	if len(args) != 1 {
		return req.Reply(ctx, "usage: /alert remove <name>")
	}
	if err := p.deps.Alerts.Remove(ctx, args[0]); err != nil {
		return p.replyError(ctx, req, err)
	}
	return req.Reply(ctx, fmt.Sprintf("Alert %q removed.", args[0]))
}

func (p *Plugin) cmdInfo(ctx context.Context, req *core.Request, args []string) error {
	if len(args) != 1 {
		return req.Reply(ctx, "usage: /alert info <name>")
	}
	a, err := p.deps.Alerts.Get(ctx, args[0])
	if err != nil {
		return p.replyError(ctx, req, err)
	}
	return req.ReplyHTML(ctx, notify.RenderAlertHTML(a))
}

func (p *Plugin) cmdList(ctx context.Context, req *core.Request) error {
	list, err := p.deps.Alerts.List(ctx)
	if err != nil {
		return p.replyError(ctx, req, err)
	}
	if len(list) == 0 {
		return req.Reply(ctx, "No alerts.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Alerts (%d)</b>\n", len(list))
	for _, a := range list {
		fmt.Fprintf(&b, "• %s — <code>%s</code>\n",
			html.EscapeString(a.Name), a.DueAt.Format(alert.DisplayDateFormat))
	}
	return req.ReplyHTML(ctx, b.String())
}

// replyError turns the service errors into user-facing messages; anything
// unexpected gets a generic reply and a log entry.
func (p *Plugin) replyError(ctx context.Context, req *core.Request, err error) error {
	switch {
	case errors.Is(err, alert.ErrDuplicateName):
		return req.Reply(ctx, "An alert with that name already exists.")
	case errors.Is(err, alert.ErrNotFound):
		return req.Reply(ctx, "No alert with that name.")
	case errors.Is(err, alert.ErrMalformedDate):
		return req.Reply(ctx, "Could not read that date. Use 31.12.2024 or 31.12.2024 18:00.")
	case errors.Is(err, alert.ErrDateInPast):
		return req.Reply(ctx, "That date already passed.")
	case errors.Is(err, alert.ErrUnknownProperty):
		return req.Reply(ctx, "Editable properties: name, date, description.")
	default:
		req.Logger.Warn("alert command failed", logx.Err(err))
		return req.Reply(ctx, "Something went wrong, try again.")
	}
}

func looksLikeTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for i, ch := range s {
		if i == 2 {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// Package tasks is the chat front-end for the per-chat task list.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"remindbot/internal/core"
	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

const usage = `/task add <text>
/task list
/task done <id>
/task remove <id>
/task clear`

type Plugin struct {
	log  logx.Logger
	deps *core.Deps
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "tasks" }

func (p *Plugin) Init(ctx context.Context, deps *core.Deps) error {
	p.deps = deps
	p.log = deps.Log.With(logx.String("plugin", p.Name()))
	return nil
}

func (p *Plugin) Start(ctx context.Context) error { return nil }
func (p *Plugin) Stop(ctx context.Context) error  { return nil }

func (p *Plugin) Commands() []core.Command {
	if !p.deps.ConfigMgr.Get().Tasks.Enabled {
		return nil
	}
	return []core.Command{{
		Route:       "task",
		Aliases:     []string{"tasks", "todo"},
		Description: "manage the chat task list",
		Usage:       usage,
		Access:      core.AccessEveryone,
		Handle:      p.handleTask,
	}}
}

func (p *Plugin) handleTask(ctx context.Context, req *core.Request) error {
	if len(req.Args) == 0 {
		return req.Reply(ctx, usage)
	}
	sub, args := strings.ToLower(req.Args[0]), req.Args[1:]
	chatID := req.Chat.ChatID

	switch sub {
	case "add":
		t, err := p.deps.Tasks.Add(ctx, chatID, strings.Join(args, " "))
		if err != nil {
			if errors.Is(err, task.ErrEmptyText) {
				return req.Reply(ctx, "usage: /task add <text>")
			}
			return p.fail(ctx, req, err)
		}
		return req.Reply(ctx, fmt.Sprintf("Task #%d added.", t.ID))

	case "list", "ls":
		list, err := p.deps.Tasks.List(ctx, chatID)
		if err != nil {
			return p.fail(ctx, req, err)
		}
		if len(list) == 0 {
			return req.Reply(ctx, "No tasks.")
		}
		var b strings.Builder
		b.WriteString("<b>Tasks</b>\n")
		for _, t := range list {
			mark := "◻️"
			if t.Done {
				mark = "✅"
			}
			fmt.Fprintf(&b, "%s #%d %s\n", mark, t.ID, html.EscapeString(t.Text))
		}
		return req.ReplyHTML(ctx, b.String())

	case "done":
		id, ok := parseID(args)
		if !ok {
			return req.Reply(ctx, "usage: /task done <id>")
		}
		if err := p.deps.Tasks.Done(ctx, chatID, id); err != nil {
			if errors.Is(err, task.ErrNotFound) {
				return req.Reply(ctx, "No task with that id.")
			}
			return p.fail(ctx, req, err)
		}
		return req.Reply(ctx, fmt.Sprintf("Task #%d done.", id))

	case "remove", "delete":
		id, ok := parseID(args)
		if !ok {
			return req.Reply(ctx, "usage: /task remove <id>")
		}
		if err := p.deps.Tasks.Remove(ctx, chatID, id); err != nil {
			if errors.Is(err, task.ErrNotFound) {
				return req.Reply(ctx, "No task with that id.")
			}
			return p.fail(ctx, req, err)
		}
		return req.Reply(ctx, fmt.Sprintf("Task #%d removed.", id))

	case "clear":
		n, err := p.deps.Tasks.ClearDone(ctx, chatID)
		if err != nil {
			return p.fail(ctx, req, err)
		}
		return req.Reply(ctx, fmt.Sprintf("Cleared %d finished task(s).", n))

	default:
		return req.Reply(ctx, "unknown subcommand, see /help task")
	}
}

func (p *Plugin) fail(ctx context.Context, req *core.Request, err error) error {
	req.Logger.Warn("task command failed", logx.Err(err))
	return req.Reply(ctx, "Something went wrong, try again.")
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

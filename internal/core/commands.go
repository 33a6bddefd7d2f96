package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"remindbot/internal/config"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessOwnerOnly
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Command struct {
	// Route is the root command word, without the leading slash.
	Route       string
	Aliases     []string
	Description string
	Usage       string
	Access      Access

	PluginName string
	Timeout    time.Duration // optional per-command override
	Handle     HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	// FromName is the sender's display name, for attribution.
	FromName string
	Command  string
	Args     []string
	ReqID    string

	Adapter kit.Adapter
	Config  *config.Config
	Logger  logx.Logger
}

// Reply sends plain text back to the requesting chat.
func (r *Request) Reply(ctx context.Context, text string) error {
	_, err := r.Adapter.SendText(ctx, r.Chat, text, &kit.SendOptions{DisablePreview: true})
	return err
}

// ReplyHTML sends HTML-formatted text back to the requesting chat.
func (r *Request) ReplyHTML(ctx context.Context, text string) error {
	_, err := r.Adapter.SendText(ctx, r.Chat, text, &kit.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
	})
	return err
}

const defaultCommandTimeout = 30 * time.Second

// CommandManager routes inbound chat messages to registered commands on a
// bounded worker pool.
type CommandManager struct {
	mu     sync.RWMutex
	routes map[string]Command
	alias  map[string]string // alias -> route
	owners []int64

	log     logx.Logger
	adapter kit.Adapter
	cfgm    *config.Manager

	jobs chan func()
}

func NewCommandManager(log logx.Logger, adapter kit.Adapter, cfgm *config.Manager, owners []int64) *CommandManager {
	return &CommandManager{
		routes:  map[string]Command{},
		alias:   map[string]string{},
		owners:  append([]int64(nil), owners...),
		log:     log.With(logx.String("comp", "commands")),
		adapter: adapter,
		cfgm:    cfgm,
		jobs:    make(chan func(), 256),
	}
}

// SetOwners updates the owner list used for AccessOwnerOnly checks.
// Safe to call during hot reload.
func (m *CommandManager) SetOwners(owners []int64) {
	cp := append([]int64(nil), owners...)
	m.mu.Lock()
	m.owners = cp
	m.mu.Unlock()
}

// SetRegistry replaces the routing table. A help command is always
// injected.
func (m *CommandManager) SetRegistry(cmds []Command) {
	cmds = append(cmds, Command{
		Route:       "help",
		Aliases:     []string{"h", "start"},
		Description: "show available commands",
		Usage:       "/help [command]",
		Handle: func(ctx context.Context, req *Request) error {
			return req.Reply(ctx, m.helpText(req.Args))
		},
	})

	routes := map[string]Command{}
	alias := map[string]string{}
	for _, c := range cmds {
		route := strings.TrimSpace(c.Route)
		if route == "" || c.Handle == nil {
			continue
		}
		routes[route] = c
		for _, a := range c.Aliases {
			a = strings.TrimSpace(a)
			if a == "" || strings.Contains(a, " ") {
				continue
			}
			alias[a] = route
		}
	}

	m.mu.Lock()
	m.routes = routes
	m.alias = alias
	m.mu.Unlock()
}

// MenuCommands returns the registry as bot menu entries, sorted by route.
func (m *CommandManager) MenuCommands() []kit.BotCommand {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]kit.BotCommand, 0, len(m.routes))
	for route, c := range m.routes {
		if c.Access == AccessOwnerOnly {
			continue
		}
		out = append(out, kit.BotCommand{Command: route, Description: c.Description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Command < out[j].Command })
	return out
}

// DispatchLoop consumes updates until ctx is done or the channel closes.
func (m *CommandManager) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	m.log.Info("dispatcher started", logx.Int("workers", workers))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-m.jobs:
					if !ok {
						return
					}
					job()
				}
			}
		}()
	}
	defer func() {
		wg.Wait()
		m.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			if up.Kind == kit.UpdateMessage {
				m.routeMessage(ctx, up)
			}
		}
	}
}

func (m *CommandManager) routeMessage(ctx context.Context, up kit.Update) {
	if up.Message == nil {
		return
	}
	msg := up.Message
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}
	parts := tokenizeCommandLine(text)
	if len(parts) == 0 {
		return
	}
	word := strings.TrimPrefix(parts[0], "/")
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	args := parts[1:]

	m.mu.RLock()
	if canonical, ok := m.alias[word]; ok {
		word = canonical
	}
	cmd, found := m.routes[word]
	owners := append([]int64(nil), m.owners...)
	m.mu.RUnlock()

	chat := kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID}
	if !found {
		// Group chats see plenty of slash commands meant for other bots.
		if !msg.IsGroup {
			_, _ = m.adapter.SendText(ctx, chat, "unknown command, try /help", nil)
		}
		return
	}
	if cmd.Access == AccessOwnerOnly && !isOwner(msg.FromID, owners) {
		_, _ = m.adapter.SendText(ctx, chat, "unauthorized", nil)
		return
	}

	rid := newReqID()
	req := &Request{
		Update:   up,
		Chat:     chat,
		FromID:   msg.FromID,
		FromName: senderName(msg),
		Command:  cmd.Route,
		Args:     args,
		ReqID:    rid,
		Adapter:  m.adapter,
		Config:   m.cfgm.Get(),
		Logger: m.log.With(
			logx.String("rid", rid),
			logx.String("cmd", cmd.Route),
			logx.Int64("chat_id", msg.ChatID),
			logx.Int64("from_id", msg.FromID),
		),
	}

	select {
	case m.jobs <- func() { m.execOne(ctx, cmd, req) }:
	default:
		_, _ = m.adapter.SendText(ctx, chat, "busy, try again", nil)
	}
}

func (m *CommandManager) execOne(ctx context.Context, cmd Command, req *Request) {
	defer func() {
		if r := recover(); r != nil {
			req.Logger.Error("panic in command handler",
				logx.Any("panic", r),
				logx.String("stack", string(debug.Stack())))
		}
	}()

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := cmd.Handle(runCtx, req); err != nil {
		req.Logger.Warn("command failed",
			logx.Duration("took", time.Since(start)),
			logx.Err(err))
		return
	}
	req.Logger.Debug("command ok", logx.Duration("took", time.Since(start)))
}

func (m *CommandManager) helpText(args []string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(args) > 0 {
		word := strings.TrimPrefix(args[0], "/")
		if canonical, ok := m.alias[word]; ok {
			word = canonical
		}
		c, ok := m.routes[word]
		if !ok {
			return "command not found, try /help"
		}
		lines := []string{"/" + c.Route, c.Description}
		if c.Usage != "" {
			lines = append(lines, "Usage: "+c.Usage)
		}
		if len(c.Aliases) > 0 {
			lines = append(lines, "Aliases: /"+strings.Join(c.Aliases, ", /"))
		}
		return strings.Join(lines, "\n")
	}

	names := make([]string, 0, len(m.routes))
	for name := range m.routes {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{"Commands (use /help <command> for details):"}
	for _, name := range names {
		c := m.routes[name]
		if c.Description != "" {
			lines = append(lines, "/"+name+" — "+c.Description)
		} else {
			lines = append(lines, "/"+name)
		}
	}
	return strings.Join(lines, "\n")
}

func senderName(msg *kit.Message) string {
	if msg.FromDisplay != "" {
		return msg.FromDisplay
	}
	return msg.FromUsername
}

func isOwner(id int64, owners []int64) bool {
	for _, o := range owners {
		if o == id {
			return true
		}
	}
	return false
}

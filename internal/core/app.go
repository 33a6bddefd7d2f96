// Package core wires the bot together: config, logging, transport,
// storage, the alert evaluator and the command dispatcher.
package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"remindbot/internal/alert"
	"remindbot/internal/config"
	"remindbot/internal/notify"
	rtsup "remindbot/internal/runtime/supervisor"
	"remindbot/internal/scheduler"
	"remindbot/internal/storage"
	"remindbot/internal/task"
	kit "remindbot/internal/transport"
	"remindbot/internal/transport/telegram"
	"remindbot/pkg/logx"
)

type App struct {
	cfgm   *config.Manager
	logsvc *logx.Service
	log    logx.Logger

	adapter   *telegram.Adapter
	store     *storage.Store
	sched     *scheduler.Service
	notifier  *notify.Service
	alerts    *alert.Service
	evaluator *alert.Evaluator
	tasks     *task.Service

	cmds    *CommandManager
	plugins *pluginManager

	sup     *rtsup.Supervisor
	updates chan kit.Update
	cfgCh   chan *config.Config
}

// lazySender lets the log service exist before the chat adapter does; log
// lines queued for Telegram are dropped until the adapter is attached.
type lazySender struct {
	v atomic.Pointer[telegram.Adapter]
}

func (l *lazySender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	a := l.v.Load()
	if a == nil {
		return kit.MessageRef{}, nil
	}
	return a.SendText(ctx, to, text, opt)
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	sender := &lazySender{}
	logsvc, log := logx.New(logxConfig(cfg.Logging), sender)
	cfgm.SetLogger(log)

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	adapter, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	sender.v.Store(adapter)
	logsvc.SetTelegramTarget(parseChatID(cfg.Telegram.GroupLog))

	busyTimeout, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	loc := time.Local
	if tz := strings.TrimSpace(cfg.Alerts.Timezone); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		}
	}

	notifier := notify.New(adapter, notify.Target{
		ChatID:  cfg.Alerts.ChannelID,
		Mention: cfg.Alerts.RoleID,
	}, log)

	alerts := alert.NewService(store.Alerts(), loc)
	evaluator := alert.NewEvaluator(store.Alerts(), notifier, func() alert.Policy {
		c := cfgm.Get()
		return alert.Policy{
			FirstReminderHours: c.Alerts.FirstReminderHours,
			LastReminderHours:  c.Alerts.LastReminderHours,
			Legacy:             c.Alerts.LegacyPredicate,
		}
	}, log)

	app := &App{
		cfgm:      cfgm,
		logsvc:    logsvc,
		log:       log,
		adapter:   adapter,
		store:     store,
		sched:     scheduler.New(scheduler.Config{Timezone: cfg.Alerts.Timezone}, log),
		notifier:  notifier,
		alerts:    alerts,
		evaluator: evaluator,
		tasks:     task.NewService(store.Tasks()),
		cmds:      NewCommandManager(log, adapter, cfgm, cfg.Telegram.OwnerUserIDs),
		plugins:   newPluginManager(log),
		updates:   make(chan kit.Update, 256),
	}
	return app, nil
}

// Register adds a plugin. Must be called before Start.
func (a *App) Register(ps ...Plugin) {
	for _, p := range ps {
		a.plugins.register(p)
	}
}

func (a *App) Log() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.NewSupervisor(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	runCtx := a.sup.Context()

	deps := &Deps{
		Log:       a.log,
		Adapter:   a.adapter,
		ConfigMgr: a.cfgm,
		Scheduler: a.sched,
		Notifier:  a.notifier,
		Alerts:    a.alerts,
		Evaluator: a.evaluator,
		Tasks:     a.tasks,
	}
	if err := a.plugins.initAll(runCtx, deps); err != nil {
		return err
	}
	a.cmds.SetRegistry(a.plugins.commands())

	if err := a.adapter.Start(runCtx, a.updates); err != nil {
		return fmt.Errorf("start adapter: %w", err)
	}
	a.sched.Start(runCtx)
	if err := a.plugins.startAll(runCtx); err != nil {
		return err
	}

	a.sup.Go("dispatch", func(ctx context.Context) error {
		return a.cmds.DispatchLoop(ctx, a.updates)
	})

	a.cfgCh = a.cfgm.Subscribe(4)
	a.sup.Go0("config_reload", func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-a.cfgCh:
				if !ok {
					return
				}
				a.applyConfig(cfg)
			}
		}
	})
	a.sup.GoRestart0("config_watch", func(ctx context.Context) {
		_ = a.cfgm.Watch(ctx)
	})

	if err := a.adapterMenu(runCtx); err != nil {
		a.log.Warn("menu update failed", logx.Err(err))
	}

	a.log.Info("bot started")
	return nil
}

// applyConfig fans a committed config out to the live components.
func (a *App) applyConfig(cfg *config.Config) {
	a.logsvc.Apply(logxConfig(cfg.Logging))
	a.logsvc.SetTelegramTarget(parseChatID(cfg.Telegram.GroupLog))
	a.cmds.SetOwners(cfg.Telegram.OwnerUserIDs)
	a.notifier.SetTarget(notify.Target{
		ChatID:  cfg.Alerts.ChannelID,
		Mention: cfg.Alerts.RoleID,
	})
	a.log.Info("config applied")
}

func (a *App) adapterMenu(ctx context.Context) error {
	return a.adapter.UpdateMenuCommands(ctx, a.cmds.MenuCommands())
}

func (a *App) Wait(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Wait(ctx)
}

// Stop shuts components down in reverse start order. Each step gets a
// slice of the remaining deadline; failures are logged, shutdown goes on.
func (a *App) Stop(ctx context.Context) {
	stopCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	a.plugins.stopAll(stopCtx)
	a.sched.Stop()
	if err := a.adapter.Stop(stopCtx); err != nil {
		a.log.Warn("adapter stop failed", logx.Err(err))
	}
	if a.sup != nil {
		if err := a.sup.Stop(stopCtx); err != nil {
			a.log.Warn("supervisor stop failed", logx.Err(err))
		}
	}
	if a.cfgCh != nil {
		a.cfgm.Unsubscribe(a.cfgCh)
		a.cfgCh = nil
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close failed", logx.Err(err))
	}
	a.log.Info("bot stopped")
	_ = a.logsvc.Close()
}

func logxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    c.Telegram.Enabled,
			MinLevel:   c.Telegram.MinLevel,
			RatePerSec: c.Telegram.RatePerSec,
		},
	}
}

func parseChatID(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

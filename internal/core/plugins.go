package core

import (
	"context"
	"fmt"

	"remindbot/internal/alert"
	"remindbot/internal/config"
	"remindbot/internal/notify"
	"remindbot/internal/scheduler"
	"remindbot/internal/task"
	kit "remindbot/internal/transport"
	"remindbot/pkg/logx"
)

// Deps is what the app hands each plugin at Init.
type Deps struct {
	Log       logx.Logger
	Adapter   kit.Adapter
	ConfigMgr *config.Manager
	Scheduler *scheduler.Service
	Notifier  *notify.Service
	Alerts    *alert.Service
	Evaluator *alert.Evaluator
	Tasks     *task.Service
}

// Plugin is a feature unit: it contributes commands and may register
// background jobs in Start.
type Plugin interface {
	Name() string
	Init(ctx context.Context, deps *Deps) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Commands() []Command
}

type pluginManager struct {
	log     logx.Logger
	plugins []Plugin
	started []Plugin
}

func newPluginManager(log logx.Logger) *pluginManager {
	return &pluginManager{log: log.With(logx.String("comp", "plugins"))}
}

func (pm *pluginManager) register(p Plugin) {
	pm.plugins = append(pm.plugins, p)
}

func (pm *pluginManager) initAll(ctx context.Context, deps *Deps) error {
	for _, p := range pm.plugins {
		if err := p.Init(ctx, deps); err != nil {
			return fmt.Errorf("plugin %s init: %w", p.Name(), err)
		}
	}
	return nil
}

func (pm *pluginManager) startAll(ctx context.Context) error {
	for _, p := range pm.plugins {
		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("plugin %s start: %w", p.Name(), err)
		}
		pm.started = append(pm.started, p)
		pm.log.Debug("plugin started", logx.String("plugin", p.Name()))
	}
	return nil
}

// stopAll stops started plugins in reverse order. Failures are logged,
// shutdown continues.
func (pm *pluginManager) stopAll(ctx context.Context) {
	for i := len(pm.started) - 1; i >= 0; i-- {
		p := pm.started[i]
		if err := p.Stop(ctx); err != nil {
			pm.log.Warn("plugin stop failed", logx.String("plugin", p.Name()), logx.Err(err))
		}
	}
	pm.started = nil
}

func (pm *pluginManager) commands() []Command {
	var out []Command
	for _, p := range pm.plugins {
		for _, c := range p.Commands() {
			c.PluginName = p.Name()
			out = append(out, c)
		}
	}
	return out
}

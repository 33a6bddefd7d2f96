// Package alerts is the chat front-end for the reminder escalation
// feature: the /alert command family plus the periodic check job.
package alerts

import (
	"context"
	"time"

	"remindbot/internal/config"
	"remindbot/internal/core"
	"remindbot/pkg/logx"
)

const checkJobName = "alerts:check"

type Plugin struct {
	log  logx.Logger
	deps *core.Deps
}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string { return "alerts" }

func (p *Plugin) Init(ctx context.Context, deps *core.Deps) error {
	p.deps = deps
	p.log = deps.Log.With(logx.String("plugin", p.Name()))
	return nil
}

// Start registers the periodic escalation check. The job timeout equals
// the interval, a pass that cannot finish within one gets cancelled and
// the next tick is skipped by the scheduler anyway.
func (p *Plugin) Start(ctx context.Context) error {
	raw := p.deps.ConfigMgr.Get().Alerts.CheckInterval
	every, err := config.ParseDurationOrDefault("alerts.check_interval", raw, 5*time.Minute)
	if err != nil {
		return err
	}
	return p.deps.Scheduler.AddInterval(checkJobName, every, every, func(ctx context.Context) error {
		return p.deps.Evaluator.RunPass(ctx)
	})
}

func (p *Plugin) Stop(ctx context.Context) error {
	p.deps.Scheduler.Remove(checkJobName)
	return nil
}

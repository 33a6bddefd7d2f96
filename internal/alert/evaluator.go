package alert

import (
	"context"
	"errors"
	"time"

	"remindbot/pkg/logx"
)

// Evaluator runs the escalation sweep: it loads every alert, classifies it
// against the current policy and either notifies or expires it. Failures on
// one record never stop the sweep; the record is logged and skipped.
type Evaluator struct {
	store  Store
	sink   Sink
	policy func() Policy
	now    func() time.Time
	log    logx.Logger
}

// EvaluatorOption configures optional evaluator behavior.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorClock replaces the time source the sweep classifies against.
// The default is time.Now; tests pass a fixed clock to pin decisions.
func WithEvaluatorClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator builds an evaluator. policy is read once per pass so live
// config reloads take effect on the next sweep.
func NewEvaluator(store Store, sink Sink, policy func() Policy, log logx.Logger, opts ...EvaluatorOption) *Evaluator {
	if log.IsZero() {
		log = logx.Nop()
	}
	e := &Evaluator{
		store:  store,
		sink:   sink,
		policy: policy,
		now:    time.Now,
		log:    log.With(logx.String("comp", "alert.evaluator")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunPass performs one full sweep. It returns an error only when the alert
// list cannot be loaded or the context ends mid-pass; per-record failures
// are swallowed after logging so the remaining records still get their turn.
//
// Notification is at-most-once: LastNotifiedAt is persisted before the sink
// is called, so a send failure costs the reminder rather than repeating it.
func (e *Evaluator) RunPass(ctx context.Context) error {
	alerts, err := e.store.ListAll(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	pol := e.policy()
	var notified, expired, failed int

	for _, a := range alerts {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch pol.Decide(now, a) {
		case DecisionNotify:
			if e.notify(ctx, a, now) {
				notified++
			} else {
				failed++
			}
		case DecisionExpire:
			if err := e.store.Delete(ctx, a.Name); err != nil {
				e.log.Warn("expire failed", logx.String("alert", a.Name), logx.Err(err))
				failed++
				continue
			}
			e.log.Info("alert expired",
				logx.String("alert", a.Name),
				logx.Time("due_at", a.DueAt))
			expired++
		}
	}

	e.log.Info("pass done",
		logx.Int("checked", len(alerts)),
		logx.Int("notified", notified),
		logx.Int("expired", expired),
		logx.Int("failed", failed))
	return nil
}

func (e *Evaluator) notify(ctx context.Context, a Alert, now time.Time) bool {
	a.LastNotifiedAt = &now
	if err := e.store.Update(ctx, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deleted between list and update. Nothing to announce.
			e.log.Debug("alert gone before notify", logx.String("alert", a.Name))
			return false
		}
		e.log.Warn("persist reminder failed", logx.String("alert", a.Name), logx.Err(err))
		return false
	}
	if err := e.sink.Send(ctx, a); err != nil {
		// The timestamp is already stored; this reminder is lost, the
		// next one fires on schedule.
		e.log.Warn("send reminder failed", logx.String("alert", a.Name), logx.Err(err))
		return false
	}
	e.log.Info("reminder sent",
		logx.String("alert", a.Name),
		logx.Time("due_at", a.DueAt))
	return true
}

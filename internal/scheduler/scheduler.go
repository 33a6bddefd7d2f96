// Package scheduler runs named background jobs at fixed intervals on a
// cron runner. Overlapping runs of the same job are skipped, so a slow
// pass never stacks behind the next tick.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/pkg/logx"
)

type Config struct {
	// Timezone is an IANA name, e.g. "Europe/Berlin". Empty means local.
	Timezone string
}

type jobDef struct {
	name    string
	spec    string
	timeout time.Duration
	run     func(ctx context.Context) error
	running *atomic.Bool
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config

	c    *cron.Cron
	ctx  context.Context
	defs map[string]*jobDef
	ids  map[string]cron.EntryID
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:  cfg,
		log:  log.With(logx.String("comp", "scheduler")),
		defs: map[string]*jobDef{},
		ids:  map[string]cron.EntryID{},
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	s.ctx = ctx
	loc := s.loadLocationLocked()
	s.c = cron.New(cron.WithLocation(loc))
	for _, d := range s.defs {
		s.registerLocked(d)
	}
	s.c.Start()
	s.log.Info("scheduler started",
		logx.Int("jobs", len(s.defs)),
		logx.String("tz", loc.String()))
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.ids = map[string]cron.EntryID{}
	s.log.Info("scheduler stopped")
}

// AddInterval registers job to run every interval. The name must be unique;
// it keys removal and shows up in logs. Jobs added before Start are
// registered on Start.
func (s *Service) AddInterval(name string, every, timeout time.Duration, job func(ctx context.Context) error) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("job name is required")
	}
	if every <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.defs[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	d := &jobDef{
		name:    name,
		spec:    fmt.Sprintf("@every %s", every),
		timeout: timeout,
		run:     job,
		running: &atomic.Bool{},
	}
	s.defs[name] = d
	if s.c != nil {
		s.registerLocked(d)
	}
	return nil
}

// Remove unregisters a job. Removing an unknown name is a no-op.
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, name)
	if id, ok := s.ids[name]; ok {
		delete(s.ids, name)
		if s.c != nil {
			s.c.Remove(id)
		}
	}
}

func (s *Service) registerLocked(d *jobDef) {
	id, err := s.c.AddFunc(d.spec, func() { s.execOne(d) })
	if err != nil {
		// Spec comes from a validated duration, this cannot fire for
		// AddInterval jobs.
		s.log.Error("register job failed", logx.String("job", d.name), logx.Err(err))
		return
	}
	s.ids[d.name] = id
}

func (s *Service) execOne(d *jobDef) {
	if !d.running.CompareAndSwap(false, true) {
		s.log.Warn("previous run still active, skipping tick", logx.String("job", d.name))
		return
	}
	defer d.running.Store(false)

	ctx := s.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := d.run(ctx); err != nil {
		s.log.Warn("job failed",
			logx.String("job", d.name),
			logx.Duration("took", time.Since(start)),
			logx.Err(err))
		return
	}
	s.log.Debug("job ok",
		logx.String("job", d.name),
		logx.Duration("took", time.Since(start)))
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}

package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"remindbot/pkg/logx"
)

type memStore struct {
	mu     sync.Mutex
	alerts []Alert

	listErr   error
	updateErr error
}

func (s *memStore) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(name) >= 0, nil
}

func (s *memStore) Create(ctx context.Context, a Alert) (Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(a.Name) >= 0 {
		return Alert{}, ErrDuplicateName
	}
	s.alerts = append(s.alerts, a)
	return a, nil
}

func (s *memStore) FindByName(ctx context.Context, name string) (Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(name); i >= 0 {
		return s.alerts[i], nil
	}
	return Alert{}, ErrNotFound
}

func (s *memStore) ListAll(ctx context.Context) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

func (s *memStore) Update(ctx context.Context, a Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	i := s.indexOfID(a.ID)
	if i < 0 {
		return ErrNotFound
	}
	s.alerts[i] = a
	return nil
}

func (s *memStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(name); i >= 0 {
		s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
	}
	return nil
}

func (s *memStore) indexOf(name string) int {
	for i, a := range s.alerts {
		if a.Name == name {
			return i
		}
	}
	return -1
}

func (s *memStore) indexOfID(id string) int {
	for i, a := range s.alerts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

type recordSink struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *recordSink) Send(ctx context.Context, a Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, a.Name)
	return nil
}

func (s *recordSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sent))
	copy(out, s.sent)
	return out
}

func newTestEvaluator(store Store, sink Sink, now time.Time) *Evaluator {
	pol := Policy{FirstReminderHours: 72, LastReminderHours: 24}
	return NewEvaluator(store, sink, func() Policy { return pol }, logx.Nop(),
		WithEvaluatorClock(func() time.Time { return now }))
}

func TestEvaluatorNotifiesOncePerSpacing(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memStore{alerts: []Alert{
		{ID: "1", Name: "deploy", DueAt: now.Add(10 * time.Hour)},
	}}
	sink := &recordSink{}
	ev := newTestEvaluator(store, sink, now)

	if err := ev.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if err := ev.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if got := sink.names(); len(got) != 1 {
		t.Fatalf("sent %v, want exactly one reminder", got)
	}

	got, err := store.FindByName(context.Background(), "deploy")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.LastNotifiedAt == nil || !got.LastNotifiedAt.Equal(now) {
		t.Fatalf("LastNotifiedAt = %v, want %v", got.LastNotifiedAt, now)
	}
}

func TestEvaluatorSweepsWholeList(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	for i := 0; i < 5; i++ {
		store.alerts = append(store.alerts, Alert{
			ID:    fmt.Sprintf("%d", i),
			Name:  fmt.Sprintf("alert-%d", i),
			DueAt: now.Add(time.Duration(i+1) * time.Hour),
		})
	}
	sink := &recordSink{}
	ev := newTestEvaluator(store, sink, now)

	if err := ev.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if got := sink.names(); len(got) != 5 {
		t.Fatalf("sent %v, want all five reminders in one pass", got)
	}
}

func TestEvaluatorExpiresWithoutNotifying(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memStore{alerts: []Alert{
		{ID: "1", Name: "stale", DueAt: now.Add(-40 * time.Hour)},
		{ID: "2", Name: "fresh", DueAt: now.Add(10 * time.Hour)},
	}}
	sink := &recordSink{}
	ev := newTestEvaluator(store, sink, now)

	if err := ev.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if _, err := store.FindByName(context.Background(), "stale"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale alert still present, err = %v", err)
	}
	if got := sink.names(); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("sent %v, want only the fresh alert", got)
	}
}

func TestEvaluatorToleratesConcurrentDelete(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memStore{
		alerts: []Alert{
			{ID: "1", Name: "gone", DueAt: now.Add(10 * time.Hour)},
			{ID: "2", Name: "kept", DueAt: now.Add(10 * time.Hour)},
		},
		updateErr: ErrNotFound,
	}
	sink := &recordSink{}
	ev := newTestEvaluator(store, sink, now)

	if err := ev.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if got := sink.names(); len(got) != 0 {
		t.Fatalf("sent %v, want nothing when updates race a delete", got)
	}
}

func TestEvaluatorSendFailureStillPersists(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &memStore{alerts: []Alert{
		{ID: "1", Name: "flaky", DueAt: now.Add(10 * time.Hour)},
	}}
	sink := &recordSink{err: errors.New("chat unreachable")}
	ev := newTestEvaluator(store, sink, now)

	if err := ev.RunPass(context.Background()); err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	got, err := store.FindByName(context.Background(), "flaky")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.LastNotifiedAt == nil {
		t.Fatal("LastNotifiedAt not persisted after failed send")
	}
}

func TestEvaluatorListFailure(t *testing.T) {
	t.Parallel()

	store := &memStore{listErr: errors.New("db locked")}
	ev := newTestEvaluator(store, &recordSink{}, time.Now())
	if err := ev.RunPass(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

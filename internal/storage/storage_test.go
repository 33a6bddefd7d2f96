package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"remindbot/internal/alert"
	"remindbot/internal/task"
	"remindbot/pkg/logx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "bot.db"),
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestAlertRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	alerts := openTestStore(t).Alerts()

	due := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	in := alert.Alert{
		ID:          "id-1",
		Name:        "release",
		DueAt:       due,
		Description: "ship it",
		CreatedBy:   "alice",
	}
	if _, err := alerts.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := alerts.FindByName(ctx, "release")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.ID != in.ID || got.Name != in.Name || !got.DueAt.Equal(due) ||
		got.Description != in.Description || got.CreatedBy != in.CreatedBy {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.LastNotifiedAt != nil {
		t.Fatal("LastNotifiedAt should round-trip as nil")
	}

	ok, err := alerts.Exists(ctx, "release")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	ok, err = alerts.Exists(ctx, "nope")
	if err != nil || ok {
		t.Fatalf("Exists(absent) = %v, %v", ok, err)
	}
}

func TestAlertDuplicateName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	alerts := openTestStore(t).Alerts()

	due := time.Now().Add(time.Hour)
	if _, err := alerts.Create(ctx, alert.Alert{ID: "a", Name: "dup", DueAt: due}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := alerts.Create(ctx, alert.Alert{ID: "b", Name: "dup", DueAt: due}); !errors.Is(err, alert.ErrDuplicateName) {
		t.Fatalf("Create duplicate err = %v, want ErrDuplicateName", err)
	}
}

func TestAlertListInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	alerts := openTestStore(t).Alerts()

	for _, name := range []string{"zebra", "apple", "mango"} {
		if _, err := alerts.Create(ctx, alert.Alert{ID: name, Name: name, DueAt: time.Now()}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	list, err := alerts.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []string{"zebra", "apple", "mango"}
	if len(list) != len(want) {
		t.Fatalf("ListAll returned %d rows, want %d", len(list), len(want))
	}
	for i, a := range list {
		if a.Name != want[i] {
			t.Fatalf("list[%d] = %q, want %q", i, a.Name, want[i])
		}
	}
}

func TestAlertUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	alerts := openTestStore(t).Alerts()

	a, err := alerts.Create(ctx, alert.Alert{ID: "a", Name: "x", DueAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a.LastNotifiedAt = &now
	if err := alerts.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := alerts.FindByName(ctx, "x")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if got.LastNotifiedAt == nil || !got.LastNotifiedAt.Equal(now) {
		t.Fatalf("LastNotifiedAt = %v, want %v", got.LastNotifiedAt, now)
	}

	if err := alerts.Update(ctx, alert.Alert{ID: "ghost", Name: "g", DueAt: now}); !errors.Is(err, alert.ErrNotFound) {
		t.Fatalf("Update absent err = %v, want ErrNotFound", err)
	}
}

func TestAlertDeleteAbsentIsNoop(t *testing.T) {
	t.Parallel()

	alerts := openTestStore(t).Alerts()
	if err := alerts.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tasks := openTestStore(t).Tasks()

	const chat = int64(42)
	first, err := tasks.Add(ctx, task.Task{ChatID: chat, Text: "water plants", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("Add did not assign an id")
	}
	second, err := tasks.Add(ctx, task.Task{ChatID: chat, Text: "buy milk", CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := tasks.MarkDone(ctx, chat, first.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := tasks.MarkDone(ctx, chat, 9999); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("MarkDone absent err = %v, want ErrNotFound", err)
	}
	// Another chat cannot touch this chat's tasks.
	if err := tasks.MarkDone(ctx, chat+1, second.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("MarkDone cross-chat err = %v, want ErrNotFound", err)
	}

	n, err := tasks.ClearDone(ctx, chat)
	if err != nil {
		t.Fatalf("ClearDone: %v", err)
	}
	if n != 1 {
		t.Fatalf("ClearDone removed %d, want 1", n)
	}

	list, err := tasks.List(ctx, chat)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Text != "buy milk" {
		t.Fatalf("List = %+v, want only the open task", list)
	}
}

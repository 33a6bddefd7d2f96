package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestService(store Store) *Service {
	return NewService(store, time.UTC, WithServiceClock(func() time.Time {
		return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	}))
}

func TestServiceAdd(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newTestService(store)

	a, err := svc.Add(context.Background(), " release ", "15.03.2024", "ship it", "alice")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.ID == "" {
		t.Fatal("Add did not assign an id")
	}
	if a.Name != "release" {
		t.Fatalf("Name = %q, want trimmed %q", a.Name, "release")
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !a.DueAt.Equal(want) {
		t.Fatalf("DueAt = %v, want %v", a.DueAt, want)
	}
	if a.LastNotifiedAt != nil {
		t.Fatal("new alert must start un-notified")
	}
}

func TestServiceAddRejections(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newTestService(store)
	if _, err := svc.Add(context.Background(), "dup", "15.03.2024", "", "alice"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	cases := []struct {
		name    string
		argName string
		argDate string
		wantErr error
	}{
		{"duplicate name", "dup", "16.03.2024", ErrDuplicateName},
		{"garbage date", "x", "soon", ErrMalformedDate},
		{"yesterday", "x", "09.03.2024", ErrDateInPast},
		{"empty date", "x", "  ", ErrMalformedDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tc.argName, tc.argDate, "", "alice")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Add err = %v, want %v", err, tc.wantErr)
			}
		})
	}

	t.Run("blank name", func(t *testing.T) {
		if _, err := svc.Add(context.Background(), "   ", "15.03.2024", "", "alice"); err == nil {
			t.Fatal("expected error for blank name")
		}
	})
	t.Run("oversized name", func(t *testing.T) {
		long := strings.Repeat("n", maxNameLen+1)
		if _, err := svc.Add(context.Background(), long, "15.03.2024", "", "alice"); err == nil {
			t.Fatal("expected error for oversized name")
		}
	})
}

func TestServiceAddAcceptsToday(t *testing.T) {
	t.Parallel()

	svc := newTestService(&memStore{})
	a, err := svc.Add(context.Background(), "today", "10.03.2024", "", "alice")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.DueAt.Day() != 10 {
		t.Fatalf("DueAt = %v, want today", a.DueAt)
	}
}

func TestServiceEditDateResetsNotification(t *testing.T) {
	t.Parallel()

	notified := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	store := &memStore{alerts: []Alert{{
		ID:             "1",
		Name:           "release",
		DueAt:          time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		LastNotifiedAt: &notified,
	}}}
	svc := newTestService(store)

	a, err := svc.Edit(context.Background(), "release", PropDate, "20.03.2024 09:30")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if a.LastNotifiedAt != nil {
		t.Fatal("date edit must clear LastNotifiedAt")
	}
	want := time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)
	if !a.DueAt.Equal(want) {
		t.Fatalf("DueAt = %v, want %v", a.DueAt, want)
	}
}

func TestServiceEditRename(t *testing.T) {
	t.Parallel()

	store := &memStore{alerts: []Alert{
		{ID: "1", Name: "old", DueAt: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Name: "taken", DueAt: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newTestService(store)

	if _, err := svc.Edit(context.Background(), "old", PropName, "taken"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("rename to taken name: err = %v, want ErrDuplicateName", err)
	}

	a, err := svc.Edit(context.Background(), "old", PropName, "new")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if a.Name != "new" {
		t.Fatalf("Name = %q, want %q", a.Name, "new")
	}
	if _, err := svc.Get(context.Background(), "old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old name still resolves, err = %v", err)
	}
}

func TestServiceEditUnknownProperty(t *testing.T) {
	t.Parallel()

	store := &memStore{alerts: []Alert{{ID: "1", Name: "a", DueAt: time.Now().Add(time.Hour)}}}
	svc := newTestService(store)
	if _, err := svc.Edit(context.Background(), "a", "priority", "high"); !errors.Is(err, ErrUnknownProperty) {
		t.Fatalf("err = %v, want ErrUnknownProperty", err)
	}
}

func TestServiceRemove(t *testing.T) {
	t.Parallel()

	store := &memStore{alerts: []Alert{{ID: "1", Name: "gone", DueAt: time.Now()}}}
	svc := newTestService(store)

	if err := svc.Remove(context.Background(), "gone"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(context.Background(), "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Remove err = %v, want ErrNotFound", err)
	}
}

func TestParseDueDate(t *testing.T) {
	t.Parallel()

	loc := time.UTC
	cases := []struct {
		in   string
		want time.Time
	}{
		{"15.03.2024", time.Date(2024, 3, 15, 0, 0, 0, 0, loc)},
		{"15.03.2024 18:45", time.Date(2024, 3, 15, 18, 45, 0, 0, loc)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, loc)},
		{"2024-03-15 06:00", time.Date(2024, 3, 15, 6, 0, 0, 0, loc)},
	}
	for _, tc := range cases {
		got, err := ParseDueDate(tc.in, loc)
		if err != nil {
			t.Errorf("ParseDueDate(%q): %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("ParseDueDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "tomorrow", "32.01.2024", "15/03/2024"} {
		if _, err := ParseDueDate(bad, loc); !errors.Is(err, ErrMalformedDate) {
			t.Errorf("ParseDueDate(%q) err = %v, want ErrMalformedDate", bad, err)
		}
	}
}

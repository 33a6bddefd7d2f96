// Package alert implements the reminder escalation core: the Alert record,
// the time/threshold policy deciding when a reminder is due, and the
// evaluator that walks the stored alerts on every pass.
package alert

import (
	"context"
	"time"
)

// Alert is a named, dated reminder tracked for escalating notification.
type Alert struct {
	// ID is assigned at creation and immutable.
	ID string
	// Name is the human-chosen unique key (case-sensitive).
	Name        string
	DueAt       time.Time
	Description string
	// CreatedBy is the display name of the creator, for attribution.
	CreatedBy string
	// LastNotifiedAt is nil until the first notification is sent. Editing
	// the due date resets it so the alert re-enters the escalation cycle.
	LastNotifiedAt *time.Time
}

// Store is the persistence contract the alert core needs. Implementations
// must keep Name unique among live alerts and return ListAll in insertion
// order.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	// Create fails with ErrDuplicateName when the name is already present.
	Create(ctx context.Context, a Alert) (Alert, error)
	// FindByName fails with ErrNotFound when the name is absent.
	FindByName(ctx context.Context, name string) (Alert, error)
	ListAll(ctx context.Context) ([]Alert, error)
	// Update replaces the stored record identified by a.ID. It fails with
	// ErrNotFound when the id is absent (possible under a concurrent delete).
	Update(ctx context.Context, a Alert) error
	// Delete is a no-op when the name is absent.
	Delete(ctx context.Context, name string) error
}

// Sink delivers a formatted alert notification to its destination.
// Sends are fire-and-forget: the evaluator does not retry failures.
type Sink interface {
	Send(ctx context.Context, a Alert) error
}

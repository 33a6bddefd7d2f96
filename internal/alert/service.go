package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Editable properties accepted by Service.Edit.
const (
	PropName        = "name"
	PropDate        = "date"
	PropDescription = "description"
)

// ErrUnknownProperty is returned by Edit for a property outside the
// supported set.
var ErrUnknownProperty = errors.New("unknown property")

const maxNameLen = 100

// Service wraps a Store with the validation rules of the chat commands:
// name uniqueness, date parsing and the not-in-the-past check.
type Service struct {
	store Store
	now   func() time.Time
	loc   *time.Location
}

// ServiceOption configures optional service behavior.
type ServiceOption func(*Service)

// WithServiceClock replaces the time source used for the not-in-the-past
// check. The default is time.Now; tests pass a fixed clock.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, loc *time.Location, opts ...ServiceOption) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{store: store, now: time.Now, loc: loc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	return s.store.Exists(ctx, strings.TrimSpace(name))
}

func (s *Service) Get(ctx context.Context, name string) (Alert, error) {
	return s.store.FindByName(ctx, strings.TrimSpace(name))
}

func (s *Service) List(ctx context.Context) ([]Alert, error) {
	return s.store.ListAll(ctx)
}

// Add validates and stores a new alert. The due date check is day-granular:
// any time today is acceptable, yesterday is not.
func (s *Service) Add(ctx context.Context, name, rawDate, description, createdBy string) (Alert, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return Alert{}, err
	}
	due, err := s.parseFutureDate(rawDate)
	if err != nil {
		return Alert{}, err
	}
	return s.store.Create(ctx, Alert{
		ID:          uuid.NewString(),
		Name:        name,
		DueAt:       due,
		Description: strings.TrimSpace(description),
		CreatedBy:   createdBy,
	})
}

// Edit changes one property of an existing alert. Moving the due date
// clears LastNotifiedAt so the escalation cycle restarts from scratch.
func (s *Service) Edit(ctx context.Context, name, property, value string) (Alert, error) {
	a, err := s.store.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return Alert{}, err
	}

	switch property {
	case PropName:
		next := strings.TrimSpace(value)
		if err := validateName(next); err != nil {
			return Alert{}, err
		}
		if next != a.Name {
			taken, err := s.store.Exists(ctx, next)
			if err != nil {
				return Alert{}, err
			}
			if taken {
				return Alert{}, ErrDuplicateName
			}
		}
		a.Name = next
	case PropDate:
		due, err := s.parseFutureDate(value)
		if err != nil {
			return Alert{}, err
		}
		a.DueAt = due
		a.LastNotifiedAt = nil
	case PropDescription:
		a.Description = strings.TrimSpace(value)
	default:
		return Alert{}, fmt.Errorf("%w: %q", ErrUnknownProperty, property)
	}

	if err := s.store.Update(ctx, a); err != nil {
		return Alert{}, err
	}
	return a, nil
}

// Remove deletes an alert. It fails with ErrNotFound when the name is
// unknown so the command can report a typo instead of silently succeeding.
func (s *Service) Remove(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	ok, err := s.store.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return s.store.Delete(ctx, name)
}

func (s *Service) parseFutureDate(raw string) (time.Time, error) {
	due, err := ParseDueDate(raw, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	now := s.now().In(s.loc)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if due.Before(startOfToday) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrDateInPast, due.Format(DisplayDateFormat))
	}
	return due, nil
}

func validateName(name string) error {
	if name == "" {
		return errors.New("name must not be empty")
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("name longer than %d characters", maxNameLen)
	}
	return nil
}

// Package task implements the per-chat task list.
package task

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Task is one entry on a chat's list. IDs are assigned by the store and
// scoped globally, not per chat.
type Task struct {
	ID        int64
	ChatID    int64
	Text      string
	Done      bool
	CreatedAt time.Time
}

var (
	ErrNotFound  = errors.New("task not found")
	ErrEmptyText = errors.New("task text must not be empty")
)

const maxTextLen = 500

// Store is the persistence contract. List returns tasks in creation order.
type Store interface {
	Add(ctx context.Context, t Task) (Task, error)
	List(ctx context.Context, chatID int64) ([]Task, error)
	// MarkDone fails with ErrNotFound when id is absent from the chat.
	MarkDone(ctx context.Context, chatID, id int64) error
	// Remove fails with ErrNotFound when id is absent from the chat.
	Remove(ctx context.Context, chatID, id int64) error
	// ClearDone removes finished tasks and reports how many went away.
	ClearDone(ctx context.Context, chatID int64) (int, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Add(ctx context.Context, chatID int64, text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}
	return s.store.Add(ctx, Task{ChatID: chatID, Text: text, CreatedAt: s.now()})
}

func (s *Service) List(ctx context.Context, chatID int64) ([]Task, error) {
	return s.store.List(ctx, chatID)
}

func (s *Service) Done(ctx context.Context, chatID, id int64) error {
	return s.store.MarkDone(ctx, chatID, id)
}

func (s *Service) Remove(ctx context.Context, chatID, id int64) error {
	return s.store.Remove(ctx, chatID, id)
}

func (s *Service) ClearDone(ctx context.Context, chatID int64) (int, error) {
	return s.store.ClearDone(ctx, chatID)
}

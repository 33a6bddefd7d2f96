package storage

import (
	"context"
	"database/sql"
	"time"

	"remindbot/internal/task"
)

// TaskStore implements task.Store on the tasks table.
type TaskStore struct {
	db *sql.DB
}

func (s *TaskStore) Add(ctx context.Context, t task.Task) (task.Task, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(chat_id, text, done, created_at) VALUES(?,?,?,?)`,
		t.ChatID, t.Text, t.Done, t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return task.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, err
	}
	t.ID = id
	return t, nil
}

func (s *TaskStore) List(ctx context.Context, chatID int64) ([]task.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, text, done, created_at FROM tasks WHERE chat_id = ? ORDER BY id`,
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Task
	for rows.Next() {
		var (
			t   task.Task
			raw string
		)
		if err := rows.Scan(&t.ID, &t.ChatID, &t.Text, &t.Done, &raw); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			t.CreatedAt = ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TaskStore) MarkDone(ctx context.Context, chatID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET done = 1 WHERE chat_id = ? AND id = ?`, chatID, id)
	if err != nil {
		return err
	}
	return oneRowOr(res, task.ErrNotFound)
}

func (s *TaskStore) Remove(ctx context.Context, chatID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE chat_id = ? AND id = ?`, chatID, id)
	if err != nil {
		return err
	}
	return oneRowOr(res, task.ErrNotFound)
}

func (s *TaskStore) ClearDone(ctx context.Context, chatID int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE chat_id = ? AND done = 1`, chatID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func oneRowOr(res sql.Result, absent error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return absent
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"remindbot/internal/alert"
	"remindbot/pkg/logx"
)

// AlertStore implements alert.Store on the alerts table. Timestamps are
// stored as RFC 3339 text in UTC; ListAll returns rows in insertion order.
type AlertStore struct {
	db  *sql.DB
	log logx.Logger
}

const alertColumns = `id, name, due_at, description, created_by, last_notified_at`

func (s *AlertStore) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM alerts WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AlertStore) Create(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts(`+alertColumns+`) VALUES(?,?,?,?,?,?)`,
		a.ID, a.Name, a.DueAt.UTC().Format(time.RFC3339Nano),
		a.Description, a.CreatedBy, nullTime(a.LastNotifiedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return alert.Alert{}, alert.ErrDuplicateName
		}
		return alert.Alert{}, err
	}
	return a, nil
}

func (s *AlertStore) FindByName(ctx context.Context, name string) (alert.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE name = ?`, name)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.Alert{}, alert.ErrNotFound
	}
	return a, err
}

// ListAll skips rows whose stored timestamps no longer parse instead of
// failing the whole sweep.
func (s *AlertStore) ListAll(ctx context.Context) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			s.log.Warn("skipping unreadable alert row", logx.Err(err))
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AlertStore) Update(ctx context.Context, a alert.Alert) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET name=?, due_at=?, description=?, created_by=?, last_notified_at=? WHERE id=?`,
		a.Name, a.DueAt.UTC().Format(time.RFC3339Nano),
		a.Description, a.CreatedBy, nullTime(a.LastNotifiedAt), a.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return alert.ErrDuplicateName
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

func (s *AlertStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE name = ?`, name)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(r rowScanner) (alert.Alert, error) {
	var (
		a       alert.Alert
		dueRaw  string
		lastRaw sql.NullString
	)
	if err := r.Scan(&a.ID, &a.Name, &dueRaw, &a.Description, &a.CreatedBy, &lastRaw); err != nil {
		return alert.Alert{}, err
	}
	due, err := time.Parse(time.RFC3339Nano, dueRaw)
	if err != nil {
		return alert.Alert{}, err
	}
	a.DueAt = due
	if lastRaw.Valid {
		last, err := time.Parse(time.RFC3339Nano, lastRaw.String)
		if err != nil {
			return alert.Alert{}, err
		}
		a.LastNotifiedAt = &last
	}
	return a, nil
}

// modernc.org/sqlite reports constraint failures as plain errors; the
// message is the only discriminator available.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

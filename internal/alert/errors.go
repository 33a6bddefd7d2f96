package alert

import "errors"

var (
	// ErrDuplicateName is returned when creating or renaming an alert to a
	// name that is already taken.
	ErrDuplicateName = errors.New("alert name already exists")
	// ErrNotFound is returned by lookups for absent alerts and by Update
	// when the record disappeared under a concurrent delete.
	ErrNotFound = errors.New("alert not found")
	// ErrMalformedDate is returned when a user-supplied or stored date
	// cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")
	// ErrDateInPast is returned when an alert is created or moved to a day
	// that already passed.
	ErrDateInPast = errors.New("date is in the past")
)

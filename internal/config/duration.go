package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration-valued fields (telegram.poll_timeout, storage.busy_timeout,
// alerts.check_interval) are stored as Go duration strings so the file
// stays unit-explicit: "5m", "90s", "1h30m".

// ParseDurationField parses one such field. Empty means unset and parses
// to zero; negative values are rejected. path names the field in errors.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration (want e.g. \"5m\"): %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: %q is negative", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault substitutes def for unset fields, for the
// cadences the bot has a built-in value for.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables recognized as overrides for the alerts section.
// These predate the config file and are kept so existing deployments keep
// working without edits.
const (
	envAlertChannelID     = "ALERT_CHANNEL_ID"
	envAlertRoleID        = "ALERT_ROLE_ID"
	envAlertFirstReminder = "ALERT_FIRST_REMINDER"
	envAlertLastReminder  = "ALERT_LAST_REMINDER"
)

func applyEnvOverrides(cfg *Config) error {
	if v, ok := lookup(envAlertChannelID); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid chat id %q: %w", envAlertChannelID, v, err)
		}
		cfg.Alerts.ChannelID = id
	}
	if v, ok := lookup(envAlertRoleID); ok {
		cfg.Alerts.RoleID = v
	}
	if v, ok := lookup(envAlertFirstReminder); ok {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return fmt.Errorf("%s: invalid hour count %q", envAlertFirstReminder, v)
		}
		cfg.Alerts.FirstReminderHours = h
	}
	if v, ok := lookup(envAlertLastReminder); ok {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return fmt.Errorf("%s: invalid hour count %q", envAlertLastReminder, v)
		}
		cfg.Alerts.LastReminderHours = h
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Alerts   AlertsConfig   `json:"alerts"`
	Tasks    TasksConfig    `json:"tasks,omitempty"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// GroupLog is the chat id the Telegram log sink posts to (empty disables).
	GroupLog string `json:"group_log,omitempty"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the SQLite persistence layer.
type StorageConfig struct {
	Path string `json:"path"`
	// BusyTimeout is a Go duration string (sqlite busy_timeout pragma).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// AlertsConfig controls the reminder escalation checker.
//
// Recognized environment overrides (applied on every load, matching the
// variables the alert feature historically used): ALERT_CHANNEL_ID,
// ALERT_ROLE_ID, ALERT_FIRST_REMINDER, ALERT_LAST_REMINDER.
type AlertsConfig struct {
	// ChannelID is the chat reminder notifications are sent to.
	ChannelID int64 `json:"channel_id"`
	// RoleID is a mention tag included in every notification (e.g. "@team").
	RoleID string `json:"role_id,omitempty"`
	// FirstReminderHours is the wider escalation window (default 72).
	FirstReminderHours int `json:"first_reminder_hours,omitempty"`
	// LastReminderHours is the tight escalation window (default 24).
	LastReminderHours int `json:"last_reminder_hours,omitempty"`
	// CheckInterval is a Go duration string for the evaluation cadence
	// (default "5m").
	CheckInterval string `json:"check_interval,omitempty"`
	// LegacyPredicate restores the historical notify decision, under which a
	// never-notified reminder is treated as notified infinitely long ago and
	// therefore always due. Kept for compatibility testing only.
	LegacyPredicate bool `json:"legacy_predicate,omitempty"`
	// Timezone is the IANA zone used when parsing user-supplied dates.
	Timezone string `json:"timezone,omitempty"`
}

type TasksConfig struct {
	Enabled bool `json:"enabled"`
}

const (
	DefaultFirstReminderHours = 72
	DefaultLastReminderHours  = 24
	DefaultCheckInterval      = "5m"
)

// Normalize fills defaulted alert fields in place.
func (c *Config) Normalize() {
	if c.Alerts.FirstReminderHours <= 0 {
		c.Alerts.FirstReminderHours = DefaultFirstReminderHours
	}
	if c.Alerts.LastReminderHours <= 0 {
		c.Alerts.LastReminderHours = DefaultLastReminderHours
	}
	if c.Alerts.CheckInterval == "" {
		c.Alerts.CheckInterval = DefaultCheckInterval
	}
}


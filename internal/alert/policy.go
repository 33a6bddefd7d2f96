package alert

import "time"

// ExpiryGraceHours is how far past due an alert may remain before it is
// deleted automatically.
const ExpiryGraceHours = 36

// Policy holds the escalation thresholds, in whole hours. All comparisons
// happen at hour granularity: durations are truncated toward zero before
// comparing, so a reminder 36.5h overdue is still within a 36h grace window.
type Policy struct {
	// FirstReminderHours is the wider window (e.g. 72).
	FirstReminderHours int
	// LastReminderHours is the tight window (e.g. 24) that gates the first
	// notification and the re-notification spacing.
	LastReminderHours int
	// Legacy restores the historical decision, under which a never-notified
	// alert counts as notified infinitely long ago and is therefore always
	// due, regardless of how far away DueAt is.
	Legacy bool
}

type Decision int

const (
	DecisionNone Decision = iota
	DecisionNotify
	DecisionExpire
)

// Decide classifies one alert at evaluation time now.
//
// Expiry wins over notification: an alert past the grace window is removed
// without a final notification.
func (p Policy) Decide(now time.Time, a Alert) Decision {
	remaining := wholeHours(a.DueAt.Sub(now))
	if remaining < -ExpiryGraceHours {
		return DecisionExpire
	}
	if p.notifyDue(now, remaining, a.LastNotifiedAt) {
		return DecisionNotify
	}
	return DecisionNone
}

// notifyDue is the escalation predicate:
//
//   - never notified: due once remaining time drops under the tight window
//   - notified before: due again once the last notification is older than
//     either window
//
// With the usual configuration (last < first) the second comparison is
// redundant; it is kept because swapping the two windows is a supported,
// if odd, configuration.
func (p Policy) notifyDue(now time.Time, remaining int, last *time.Time) bool {
	if last == nil {
		if remaining < p.LastReminderHours {
			return true
		}
		return p.Legacy
	}
	since := wholeHours(now.Sub(*last))
	return since > p.LastReminderHours || since > p.FirstReminderHours
}

// wholeHours truncates toward zero, matching integer seconds/3600
// arithmetic at window boundaries.
func wholeHours(d time.Duration) int {
	return int(d / time.Hour)
}

package alert

import (
	"testing"
	"time"
)

func TestPolicyDecide(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	pol := Policy{FirstReminderHours: 72, LastReminderHours: 24}

	notified := func(ago time.Duration) *time.Time {
		ts := now.Add(-ago)
		return &ts
	}

	cases := []struct {
		name  string
		pol   Policy
		alert Alert
		want  Decision
	}{
		{
			name:  "never notified inside tight window",
			pol:   pol,
			alert: Alert{DueAt: now.Add(20 * time.Hour)},
			want:  DecisionNotify,
		},
		{
			name:  "never notified outside tight window",
			pol:   pol,
			alert: Alert{DueAt: now.Add(50 * time.Hour)},
			want:  DecisionNone,
		},
		{
			name:  "never notified exactly at tight window",
			pol:   pol,
			alert: Alert{DueAt: now.Add(24 * time.Hour)},
			want:  DecisionNone,
		},
		{
			name:  "never notified just under tight window",
			pol:   pol,
			alert: Alert{DueAt: now.Add(24*time.Hour - time.Minute)},
			want:  DecisionNotify,
		},
		{
			name:  "overdue past grace window",
			pol:   pol,
			alert: Alert{DueAt: now.Add(-40 * time.Hour)},
			want:  DecisionExpire,
		},
		{
			name:  "overdue within grace window by truncation",
			pol:   pol,
			alert: Alert{DueAt: now.Add(-36*time.Hour - 30*time.Minute)},
			want:  DecisionNotify,
		},
		{
			name:  "overdue one whole hour past grace",
			pol:   pol,
			alert: Alert{DueAt: now.Add(-37 * time.Hour)},
			want:  DecisionExpire,
		},
		{
			name:  "expiry wins even when notification is long overdue",
			pol:   pol,
			alert: Alert{DueAt: now.Add(-40 * time.Hour), LastNotifiedAt: notified(100 * time.Hour)},
			want:  DecisionExpire,
		},
		{
			name:  "notified recently stays quiet",
			pol:   pol,
			alert: Alert{DueAt: now.Add(10 * time.Hour), LastNotifiedAt: notified(5 * time.Hour)},
			want:  DecisionNone,
		},
		{
			name:  "notified just now stays quiet",
			pol:   pol,
			alert: Alert{DueAt: now.Add(10 * time.Hour), LastNotifiedAt: notified(0)},
			want:  DecisionNone,
		},
		{
			name:  "notified past spacing fires again",
			pol:   pol,
			alert: Alert{DueAt: now.Add(10 * time.Hour), LastNotifiedAt: notified(25 * time.Hour)},
			want:  DecisionNotify,
		},
		{
			name:  "notified exactly at spacing stays quiet",
			pol:   pol,
			alert: Alert{DueAt: now.Add(10 * time.Hour), LastNotifiedAt: notified(24 * time.Hour)},
			want:  DecisionNone,
		},
		{
			name: "swapped windows use the smaller spacing",
			pol:  Policy{FirstReminderHours: 24, LastReminderHours: 72},
			alert: Alert{
				DueAt:          now.Add(10 * time.Hour),
				LastNotifiedAt: notified(25 * time.Hour),
			},
			want: DecisionNotify,
		},
		{
			name:  "legacy fires far ahead of due",
			pol:   Policy{FirstReminderHours: 72, LastReminderHours: 24, Legacy: true},
			alert: Alert{DueAt: now.Add(500 * time.Hour)},
			want:  DecisionNotify,
		},
		{
			name: "legacy still respects spacing once notified",
			pol:  Policy{FirstReminderHours: 72, LastReminderHours: 24, Legacy: true},
			alert: Alert{
				DueAt:          now.Add(500 * time.Hour),
				LastNotifiedAt: notified(5 * time.Hour),
			},
			want: DecisionNone,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.pol.Decide(now, tc.alert); got != tc.want {
				t.Fatalf("Decide() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWholeHours(t *testing.T) {
	t.Parallel()

	cases := []struct {
		d    time.Duration
		want int
	}{
		{90 * time.Minute, 1},
		{-90 * time.Minute, -1},
		{59 * time.Minute, 0},
		{-59 * time.Minute, 0},
		{24 * time.Hour, 24},
	}
	for _, tc := range cases {
		if got := wholeHours(tc.d); got != tc.want {
			t.Errorf("wholeHours(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

package dashboard

import (
	"testing"
	"time"

	"github.com/musher-dev/clawdash/internal/model"
)

func TestRelativeAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3*time.Hour + 59*time.Minute, "3h ago"},
		{49 * time.Hour, "2d ago"},
	}

	for _, tt := range tests {
		if got := RelativeAge(tt.age); got != tt.want {
			t.Errorf("RelativeAge(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		next time.Time
		want string
	}{
		{"unknown", time.Time{}, "-"},
		{"past", now.Add(-time.Second), "now"},
		{"seconds away", now.Add(30 * time.Second), "soon"},
		{"minutes", now.Add(3*time.Minute + 10*time.Second), "in 3m"},
		{"hours", now.Add(2*time.Hour + 59*time.Minute), "in 2h"},
		{"days", now.Add(26 * time.Hour), "in 1d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.next, now); got != tt.want {
				t.Errorf("NextRun() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	n := func(v int64) *int64 { return &v }

	tests := []struct {
		in   *int64
		want string
	}{
		{nil, "-"},
		{n(950), "950"},
		{n(12_345), "12.3k"},
		{n(4_100_000), "4.1M"},
	}

	for _, tt := range tests {
		if got := Tokens(tt.in); got != tt.want {
			t.Errorf("Tokens(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		in   model.Schedule
		want string
	}{
		{model.Schedule{Kind: "cron", Expr: "0 9 * * 1-5", TZ: "Europe/Berlin"}, "0 9 * * 1-5 (Europe/Berlin)"},
		{model.Schedule{Kind: "cron", Expr: "*/15 * * * *"}, "*/15 * * * *"},
		{model.Schedule{Kind: "every", EveryMs: 300_000}, "every 5m"},
		{model.Schedule{Kind: "every", EveryMs: 3_600_000}, "every 1h"},
		{model.Schedule{Kind: "every", EveryMs: 90_000}, "every 1m30s"},
		{model.Schedule{Kind: "at"}, "at"},
		{model.Schedule{}, "-"},
	}

	for _, tt := range tests {
		if got := Schedule(tt.in); got != tt.want {
			t.Errorf("Schedule(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("agent:main:telegram:group:42", 12); got != "agent:main:…" {
		t.Errorf("truncate() = %q", got)
	}

	if got := truncate("short", 12); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
}

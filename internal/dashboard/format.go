package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/musher-dev/clawdash/internal/model"
)

// RelativeAge renders how long ago something happened: "just now", "5m ago",
// "3h ago", "2d ago".
func RelativeAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(age/(24*time.Hour)))
	}
}

// NextRun renders time until a job's next run. Past times read "now", less
// than a minute reads "soon", otherwise the largest whole unit: "in 3m",
// "in 2h", "in 1d". A zero time reads "-".
func NextRun(next, now time.Time) string {
	if next.IsZero() {
		return "-"
	}

	diff := next.Sub(now)

	switch {
	case diff < 0:
		return "now"
	case diff >= 24*time.Hour:
		return fmt.Sprintf("in %dd", int(diff/(24*time.Hour)))
	case diff >= time.Hour:
		return fmt.Sprintf("in %dh", int(diff/time.Hour))
	case diff >= time.Minute:
		return fmt.Sprintf("in %dm", int(diff/time.Minute))
	default:
		return "soon"
	}
}

// Tokens renders a token count compactly: 950, 12.3k, 4.1M.
func Tokens(n *int64) string {
	if n == nil {
		return "-"
	}

	v := *n

	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(float64(v)/1_000_000, 'f', 1, 64) + "M"
	case v >= 1_000:
		return strconv.FormatFloat(float64(v)/1_000, 'f', 1, 64) + "k"
	default:
		return strconv.FormatInt(v, 10)
	}
}

// Schedule renders a job schedule: the cron expression with its zone, or
// "every 5m" for interval jobs.
func Schedule(s model.Schedule) string {
	switch {
	case s.Expr != "" && s.TZ != "":
		return s.Expr + " (" + s.TZ + ")"
	case s.Expr != "":
		return s.Expr
	case s.EveryMs > 0:
		return "every " + shortDuration(time.Duration(s.EveryMs)*time.Millisecond)
	case s.Kind != "":
		return s.Kind
	default:
		return "-"
	}
}

// shortDuration drops zero trailing units: 5m0s reads 5m, 1h0m0s reads 1h.
func shortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}

	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}

	return s
}

func millis(ms *int64) time.Time {
	if ms == nil || *ms <= 0 {
		return time.Time{}
	}

	return time.UnixMilli(*ms)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// truncate shortens s to width runes, marking the cut with "…".
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}

	if width == 1 {
		return "…"
	}

	return string(r[:width-1]) + "…"
}

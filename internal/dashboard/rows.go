package dashboard

import (
	"strconv"
	"strings"
	"time"

	"github.com/musher-dev/clawdash/internal/model"
)

// Column titles shared by the dashboard tables and the one-shot commands.
var (
	SessionHeaders = []string{"KEY", "AGENT", "KIND", "MODEL", "MSGS", "TOKENS", "UPDATED"}
	JobHeaders     = []string{"ID", "NAME", "ON", "SCHEDULE", "NEXT", "LAST"}
	AgentHeaders   = []string{"ID", "NAME", "MODEL", "THINKING", "BINDINGS", "SUBAGENTS"}
)

// SessionRow renders one session under SessionHeaders.
func SessionRow(s model.Session, now time.Time) []string {
	msgs := "-"
	if s.MessageCount != nil {
		msgs = strconv.Itoa(*s.MessageCount)
	}

	updated := "-"
	if t := s.UpdatedTime(); !t.IsZero() {
		updated = RelativeAge(now.Sub(t))
	}

	return []string{
		s.Key,
		orDash(s.AgentID),
		orDash(s.Kind),
		orDash(s.Model),
		msgs,
		Tokens(s.TotalTokens),
		updated,
	}
}

// JobRow renders one job under JobHeaders. A pending job shows "…" as its
// last status.
func JobRow(j model.ScheduledJob, pending bool, now time.Time) []string {
	on := "no"
	if j.Enabled {
		on = "yes"
	}

	next, last := "-", "-"

	if j.State != nil {
		if j.Enabled {
			next = NextRun(millis(j.State.NextRunAtMs), now)
		}

		last = orDash(string(j.State.LastStatus))
	}

	if pending {
		last = "…"
	}

	return []string{j.ID, orDash(j.Name), on, Schedule(j.Schedule), next, last}
}

// AgentRow renders one agent under AgentHeaders. Bindings show their
// pattern, or the channel when there is none.
func AgentRow(a model.Agent) []string {
	bindings := make([]string, 0, len(a.Bindings))

	for _, b := range a.Bindings {
		if b.Pattern != "" {
			bindings = append(bindings, b.Pattern)
		} else {
			bindings = append(bindings, b.Channel)
		}
	}

	return []string{
		a.ID,
		orDash(a.Name),
		orDash(a.Model),
		orDash(a.ThinkingLevel),
		orDash(strings.Join(bindings, ", ")),
		orDash(strings.Join(a.AllowAgents, ", ")),
	}
}

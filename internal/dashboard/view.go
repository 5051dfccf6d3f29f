package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/musher-dev/clawdash/internal/gateway"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/poll"
)

type styles struct {
	title     lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	running   lipgloss.Style
	stopped   lipgloss.Style
	muted     lipgloss.Style
	warn      lipgloss.Style
	flash     lipgloss.Style
	table     table.Styles
}

func newStyles() styles {
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))

	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
		activeTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true).Foreground(lipgloss.Color("229")),
		running:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		stopped:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		flash:     lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		table:     ts,
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")
	b.WriteString(m.bodyView())
	b.WriteString("\n")
	b.WriteString(m.footerView())

	return b.String()
}

func (m *Model) headerView() string {
	parts := []string{m.styles.title.Render("clawdash")}
	if m.opts.Label != "" {
		parts = append(parts, m.styles.muted.Render(truncate(m.opts.Label, 40)))
	}

	parts = append(parts, m.gatewayView())

	return strings.Join(parts, "  ")
}

func (m *Model) gatewayView() string {
	st := m.status.State()
	if !st.HasData {
		if st.Err != nil {
			return m.styles.warn.Render("gateway status unavailable")
		}

		return m.styles.muted.Render("gateway " + m.spinner.View())
	}

	gw := st.Data.Gateway
	if !gw.Running {
		return m.styles.stopped.Render("○ gateway not running")
	}

	line := "● gateway running"
	if gw.PID > 0 {
		line += " pid " + strconv.Itoa(gw.PID)
	}

	if gw.Uptime != "" {
		line += " · up " + gw.Uptime
	}

	out := m.styles.running.Render(line)

	if mem := st.Data.Memory; mem != nil {
		out += m.styles.muted.Render(fmt.Sprintf("  api heap %.1fMB", float64(mem.HeapUsed)/(1<<20)))
	}

	return out
}

func (m *Model) tabsView() string {
	counts := [tabCount]string{}

	if st := m.sessions.State(); st.HasData {
		counts[tabSessions] = fmt.Sprintf(" (%d)", len(st.Data))
	}

	if st := m.jobs.State(); st.HasData {
		counts[tabJobs] = fmt.Sprintf(" (%d)", len(st.Data))
	}

	if st := m.agents.State(); st.HasData {
		counts[tabAgents] = fmt.Sprintf(" (%d)", len(st.Data.Agents))
	}

	tabs := make([]string, 0, tabCount)

	for t := range tabCount {
		label := t.String() + counts[t]
		if t == m.active {
			tabs = append(tabs, m.styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) bodyView() string {
	phase, hasData, empty := m.activeMeta()

	switch {
	case !hasData && (phase == poll.PhaseLoading || phase == poll.PhaseIdle):
		return m.spinner.View() + " loading " + strings.ToLower(m.active.String()) + "…"
	case !hasData:
		return m.styles.warn.Render("no data yet")
	case empty:
		return m.styles.muted.Render(emptyText(m.active))
	default:
		return m.table.View()
	}
}

func emptyText(t tab) string {
	switch t {
	case tabJobs:
		return "No scheduled jobs"
	case tabAgents:
		return "No agents configured"
	default:
		return "No active sessions"
	}
}

// activeMeta reports the active resource's phase, whether it has data, and
// whether that data is empty.
func (m *Model) activeMeta() (poll.Phase, bool, bool) {
	switch m.active {
	case tabJobs:
		st := m.jobs.State()
		return st.Phase, st.HasData, len(st.Data) == 0
	case tabAgents:
		st := m.agents.State()
		return st.Phase, st.HasData, len(st.Data.Agents) == 0
	default:
		st := m.sessions.State()
		return st.Phase, st.HasData, len(st.Data) == 0
	}
}

// activeStatus reports when the active resource was last fetched, whether
// a refresh is running, and the latest fetch error.
func (m *Model) activeStatus() (time.Time, bool, error) {
	switch m.active {
	case tabJobs:
		st := m.jobs.State()
		return st.FetchedAt, st.IsRefreshing(), st.Err
	case tabAgents:
		st := m.agents.State()
		return st.FetchedAt, st.IsRefreshing(), st.Err
	default:
		st := m.sessions.State()
		return st.FetchedAt, st.IsRefreshing(), st.Err
	}
}

func (m *Model) footerView() string {
	var lines []string

	fetchedAt, refreshing, err := m.activeStatus()

	var status string

	switch {
	case err != nil:
		status = m.styles.warn.Render("⚠ " + errText(err))
		if !fetchedAt.IsZero() {
			status += m.styles.muted.Render(" · showing data from " + RelativeAge(m.opts.Now().Sub(fetchedAt)))
		}
	case refreshing:
		status = m.spinner.View() + " refreshing"
	case !fetchedAt.IsZero():
		status = m.styles.muted.Render("updated " + RelativeAge(m.opts.Now().Sub(fetchedAt)))
	}

	auto := "auto-refresh on"
	if !m.autoRefresh {
		auto = "auto-refresh off"
	}

	lines = append(lines, strings.TrimSpace(status+"  "+m.styles.muted.Render(auto)))

	if m.flash != "" {
		lines = append(lines, m.styles.flash.Render(m.flash))
	}

	help := "tab switch · ↑/↓ move · R refresh · a auto-refresh · q quit"
	if m.active == tabJobs {
		help = "tab switch · ↑/↓ move · e enable/disable · r run · R refresh · a auto-refresh · q quit"
	}

	lines = append(lines, m.styles.muted.Render(help))

	return strings.Join(lines, "\n")
}

func errText(err error) string {
	if kind := gateway.KindOf(err); kind != "" {
		return "degraded: " + string(kind)
	}

	return err.Error()
}

// syncTable rebuilds columns and rows for the active tab.
func (m *Model) syncTable() {
	var (
		cols []table.Column
		rows []table.Row
	)

	switch m.active {
	case tabJobs:
		st := m.jobs.State()
		cols = m.columns(JobHeaders, []int{14, 0, 3, 24, 8, 9}, 1)
		rows = jobRows(st.Data, st.Pending, m.opts.Now())
	case tabAgents:
		st := m.agents.State()
		cols = m.columns(AgentHeaders, []int{14, 16, 26, 9, 0, 16}, 4)
		rows = agentRows(st.Data.Agents)
	default:
		st := m.sessions.State()
		cols = m.columns(SessionHeaders, []int{0, 12, 8, 24, 5, 7, 9}, 0)
		rows = sessionRows(st.Data, m.opts.Now())
	}

	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(3, m.height-8))

	if cursor := m.table.Cursor(); cursor >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
}

// columns sizes the flex column to fill the terminal width.
func (m *Model) columns(titles []string, widths []int, flex int) []table.Column {
	used := 0
	for i, w := range widths {
		if i != flex {
			used += w
		}
	}

	// Cells are padded by one space on each side.
	widths[flex] = max(12, m.width-used-2*len(widths))

	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}

	return cols
}

func sessionRows(sessions []model.Session, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, SessionRow(s, now))
	}

	return rows
}

func jobRows(jobs []model.ScheduledJob, pending map[string]bool, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, JobRow(j, pending[j.ID], now))
	}

	return rows
}

func agentRows(agents []model.Agent) []table.Row {
	rows := make([]table.Row, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, AgentRow(a))
	}

	return rows
}

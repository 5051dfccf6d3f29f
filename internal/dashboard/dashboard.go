// Package dashboard is the live terminal view of a clawdbot gateway.
//
// Each resource (sessions, jobs, agents, gateway status) is owned by its own
// poll.Controller; the bubbletea model only renders controller state and
// forwards key presses as refreshes or job actions.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/musher-dev/clawdash/internal/agentconfig"
	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
	"github.com/musher-dev/clawdash/internal/poll"
)

// Intervals between automatic refreshes. A zero interval leaves the resource
// on-demand only.
type Intervals struct {
	Sessions time.Duration
	Jobs     time.Duration
	Agents   time.Duration
	Status   time.Duration
}

// Options configures a dashboard.
type Options struct {
	Intervals Intervals
	// NoAutoRefresh starts every resource paused; R still refreshes.
	NoAutoRefresh bool
	// WatchDir, when set, refreshes agents whenever the gateway
	// configuration in that directory changes.
	WatchDir string
	// Label names the data source in the header.
	Label string
	Now   func() time.Time
}

type tab int

const (
	tabSessions tab = iota
	tabJobs
	tabAgents
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabSessions:
		return "Sessions"
	case tabJobs:
		return "Jobs"
	case tabAgents:
		return "Agents"
	default:
		return "?"
	}
}

type resource int

const (
	resSessions resource = iota
	resJobs
	resAgents
	resStatus
)

type changeMsg struct {
	res resource
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	src    Source

	sessions *poll.Controller[[]model.Session]
	jobs     *poll.Controller[[]model.ScheduledJob]
	agents   *poll.Controller[model.AgentsOverview]
	status   *poll.Controller[model.SystemStatus]
	watcher  *agentconfig.Watcher

	active  tab
	table   table.Model
	spinner spinner.Model
	styles  styles

	width, height int
	autoRefresh   bool
	flash         string
	lastAction    time.Time

	stopOnce sync.Once
}

// New builds a dashboard over src. Nothing is fetched until Start.
func New(ctx context.Context, src Source, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(ctx)
	paused := opts.NoAutoRefresh
	iv := opts.Intervals

	m := &Model{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		src:    src,

		sessions: poll.New[[]model.Session](src.Sessions, poll.Options{Name: "sessions", Interval: iv.Sessions, Paused: paused}),
		jobs:     poll.New[[]model.ScheduledJob](src.Jobs, poll.Options{Name: "jobs", Interval: iv.Jobs, Paused: paused}),
		agents:   poll.New[model.AgentsOverview](src.Agents, poll.Options{Name: "agents", Interval: iv.Agents, Paused: paused}),
		status:   poll.New[model.SystemStatus](src.Status, poll.Options{Name: "status", Interval: iv.Status, Paused: paused}),

		table:       table.New(table.WithFocused(true)),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:      newStyles(),
		width:       100,
		height:      30,
		autoRefresh: !paused,
	}

	m.table.SetStyles(m.styles.table)
	m.syncTable()

	return m
}

// Start begins polling every resource and, when configured, watching the
// gateway configuration directory. A watcher that cannot start is logged and
// skipped.
func (m *Model) Start() {
	m.sessions.Start(m.ctx)
	m.jobs.Start(m.ctx)
	m.agents.Start(m.ctx)
	m.status.Start(m.ctx)

	if m.opts.WatchDir == "" {
		return
	}

	m.watcher = agentconfig.NewWatcher(m.opts.WatchDir, agentconfig.DefaultDebounce, m.agents.Refresh)
	if err := m.watcher.Start(m.ctx); err != nil {
		observability.FromContext(m.ctx).Warn("config watch disabled",
			slog.String("dir", m.opts.WatchDir),
			slog.String("error", err.Error()),
		)

		m.watcher = nil
	}
}

// Stop halts all controllers and the watcher. It is safe to call more than
// once.
func (m *Model) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()

		if m.watcher != nil {
			m.watcher.Stop()
		}

		m.sessions.Stop()
		m.jobs.Stop()
		m.agents.Stop()
		m.status.Stop()
	})
}

// Run starts the dashboard full-screen and blocks until the user quits or
// ctx is canceled.
func Run(ctx context.Context, src Source, opts Options) error {
	m := New(ctx, src, opts)
	m.Start()
	defer m.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}

		return err
	}

	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitChange(resSessions, m.sessions.Changes()),
		m.waitChange(resJobs, m.jobs.Changes()),
		m.waitChange(resAgents, m.agents.Changes()),
		m.waitChange(resStatus, m.status.Changes()),
	)
}

// waitChange delivers the next state change of one controller as a message.
func (m *Model) waitChange(res resource, ch <-chan struct{}) tea.Cmd {
	ctx := m.ctx

	return func() tea.Msg {
		select {
		case <-ch:
			return changeMsg{res: res}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) changes(res resource) <-chan struct{} {
	switch res {
	case resSessions:
		return m.sessions.Changes()
	case resJobs:
		return m.jobs.Changes()
	case resAgents:
		return m.agents.Changes()
	default:
		return m.status.Changes()
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.syncTable()

		return m, nil

	case changeMsg:
		if msg.res == resJobs {
			m.noteAction()
		}

		if msg.res == m.tabResource() {
			m.syncTable()
		}

		return m, m.waitChange(msg.res, m.changes(msg.res))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.Stop()
		return m, tea.Quit

	case "tab", "right", "l":
		m.switchTab((m.active + 1) % tabCount)
		return m, nil

	case "shift+tab", "left", "h":
		m.switchTab((m.active + tabCount - 1) % tabCount)
		return m, nil

	case "1", "2", "3":
		m.switchTab(tab(msg.String()[0] - '1'))
		return m, nil

	case "R":
		m.refreshAll()
		return m, nil

	case "a":
		m.autoRefresh = !m.autoRefresh
		m.sessions.SetAutoRefresh(m.autoRefresh)
		m.jobs.SetAutoRefresh(m.autoRefresh)
		m.agents.SetAutoRefresh(m.autoRefresh)
		m.status.SetAutoRefresh(m.autoRefresh)

		return m, nil

	case "e":
		m.toggleSelectedJob()
		return m, nil

	case "r":
		m.runSelectedJob()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m *Model) switchTab(t tab) {
	if t == m.active {
		return
	}

	m.active = t
	m.table.SetCursor(0)
	m.syncTable()
}

func (m *Model) tabResource() resource {
	switch m.active {
	case tabJobs:
		return resJobs
	case tabAgents:
		return resAgents
	default:
		return resSessions
	}
}

func (m *Model) refreshAll() {
	m.sessions.Refresh()
	m.jobs.Refresh()
	m.agents.Refresh()
	m.status.Refresh()
}

// selectedJob returns the job under the cursor on the jobs tab.
func (m *Model) selectedJob() (model.ScheduledJob, bool) {
	if m.active != tabJobs {
		return model.ScheduledJob{}, false
	}

	row := m.table.SelectedRow()
	if len(row) == 0 {
		return model.ScheduledJob{}, false
	}

	for _, job := range m.jobs.State().Data {
		if job.ID == row[0] {
			return job, true
		}
	}

	return model.ScheduledJob{}, false
}

func (m *Model) toggleSelectedJob() {
	job, ok := m.selectedJob()
	if !ok {
		return
	}

	id, enable := job.ID, !job.Enabled
	m.flash = actionVerb(enable) + " " + id + "…"

	m.jobs.Act(id, func(ctx context.Context) bool {
		return m.src.UpdateJob(ctx, id, model.EnablePatch(enable))
	})
}

func (m *Model) runSelectedJob() {
	job, ok := m.selectedJob()
	if !ok {
		return
	}

	id := job.ID
	m.flash = "running " + id + "…"

	m.jobs.Act(id, func(ctx context.Context) bool {
		return m.src.RunJob(ctx, id)
	})
}

// noteAction turns a newly finished job action into the flash line.
func (m *Model) noteAction() {
	last := m.jobs.State().LastAction
	if last == nil || !last.At.After(m.lastAction) {
		return
	}

	m.lastAction = last.At

	if last.OK {
		m.flash = last.ID + ": done"
	} else {
		m.flash = last.ID + ": failed"
	}
}

func actionVerb(enable bool) string {
	if enable {
		return "enabling"
	}

	return "disabling"
}

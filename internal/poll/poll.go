// Package poll keeps one remote-derived resource fresh.
//
// A Controller owns the latest snapshot of its resource. A single goroutine
// applies every state change, so fetch results, timer ticks, refresh
// requests, and action completions are serialized. Each fetch carries a
// generation number; only the result of the most recently issued fetch is
// ever applied.
package poll

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/musher-dev/clawdash/internal/observability"
)

// Phase is the lifecycle position of a resource.
type Phase int

// Phases.
const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseRefreshing
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseRefreshing:
		return "refreshing"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// FetchFunc loads a fresh snapshot. It must return promptly once ctx is
// canceled.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ActionFunc performs a mutation and reports whether it succeeded.
type ActionFunc func(ctx context.Context) bool

// ActionOutcome records the most recent finished action.
type ActionOutcome struct {
	ID string
	OK bool
	At time.Time
}

// State is an immutable copy of a controller's view of its resource.
type State[T any] struct {
	Phase Phase
	// Data is the last successfully fetched snapshot. It survives failed
	// fetches.
	Data    T
	HasData bool
	// Err is the error from the latest applied fetch, nil after a success.
	Err       error
	FetchedAt time.Time
	// Generation identifies the fetch whose result is in Data.
	Generation uint64
	// Superseded counts results discarded because a newer fetch was issued.
	Superseded uint64
	// Pending holds ids with an action in flight.
	Pending     map[string]bool
	LastAction  *ActionOutcome
	AutoRefresh bool
}

// IsLoading reports a first load with nothing to show yet.
func (s State[T]) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// IsRefreshing reports a background fetch while data is displayed.
func (s State[T]) IsRefreshing() bool {
	return s.Phase == PhaseRefreshing
}

// ActionLoading reports whether an action for id is in flight.
func (s State[T]) ActionLoading(id string) bool {
	return s.Pending[id]
}

// Options configures a Controller.
type Options struct {
	// Name labels log records.
	Name string
	// Interval between automatic refreshes. Zero disables the timer; the
	// resource then refreshes only on demand.
	Interval time.Duration
	// Paused starts the controller with automatic refresh off.
	Paused bool
}

type requestKind int

const (
	requestRefresh requestKind = iota + 1
	requestAction
	requestAutoRefresh
)

type request struct {
	kind   requestKind
	id     string
	action ActionFunc
	on     bool
}

type fetchResult[T any] struct {
	gen  uint64
	data T
	err  error
}

type actionResult struct {
	id string
	ok bool
}

// Controller drives the refresh cycle for one resource.
type Controller[T any] struct {
	fetch FetchFunc[T]
	opts  Options

	requests chan request
	results  chan fetchResult[T]
	actions  chan actionResult
	changes  chan struct{}

	mu    sync.RWMutex
	state State[T]

	cancel    context.CancelFunc
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	torndown  bool
}

// New returns a Controller in PhaseIdle. Call Start to begin fetching.
func New[T any](fetch FetchFunc[T], opts Options) *Controller[T] {
	return &Controller[T]{
		fetch:    fetch,
		opts:     opts,
		requests: make(chan request, 16),
		results:  make(chan fetchResult[T]),
		actions:  make(chan actionResult),
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		state: State[T]{
			Phase:       PhaseIdle,
			Pending:     map[string]bool{},
			AutoRefresh: !opts.Paused && opts.Interval > 0,
		},
	}
}

// Name returns the controller's label.
func (c *Controller[T]) Name() string {
	return c.opts.Name
}

// Start issues the first fetch and begins the refresh cycle. It returns
// immediately. Later calls, and calls after Stop, are no-ops.
func (c *Controller[T]) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.torndown {
			return
		}

		loopCtx, cancel := context.WithCancel(ctx)
		c.cancel = cancel
		c.started = true

		go c.loop(loopCtx)
	})
}

// Stop cancels any pending fetch and the refresh timer, and waits for the
// controller goroutine to exit. No state change happens after Stop returns.
// Results of fetches or actions still running are dropped when they finish.
func (c *Controller[T]) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.torndown = true
		cancel, started := c.cancel, c.started
		c.mu.Unlock()

		close(c.done)

		if !started {
			return
		}

		cancel()
		<-c.stopped
	})
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.state
	s.Pending = maps.Clone(c.state.Pending)

	return s
}

// Changes signals after every state change. Signals coalesce; a receiver
// should read State after each one. Only one receiver is supported.
func (c *Controller[T]) Changes() <-chan struct{} {
	return c.changes
}

// Refresh issues a fetch now, superseding any fetch in flight.
func (c *Controller[T]) Refresh() {
	c.send(request{kind: requestRefresh})
}

// Act runs fn for id unless an action for id is already in flight. When fn
// finishes, successful or not, the resource is fetched again.
func (c *Controller[T]) Act(id string, fn ActionFunc) {
	c.send(request{kind: requestAction, id: id, action: fn})
}

// SetAutoRefresh turns the interval timer on or off.
func (c *Controller[T]) SetAutoRefresh(on bool) {
	c.send(request{kind: requestAutoRefresh, on: on})
}

func (c *Controller[T]) send(req request) {
	select {
	case c.requests <- req:
	case <-c.done:
	}
}

// loop owns all state transitions.
func (c *Controller[T]) loop(ctx context.Context) {
	defer close(c.stopped)

	logger := observability.FromContext(ctx).With(slog.String("resource", c.opts.Name))

	var (
		gen         uint64
		cancelFetch context.CancelFunc
		ticker      *time.Ticker
		tickC       <-chan time.Time
	)

	setTimer := func(on bool) {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}

		if on && c.opts.Interval > 0 {
			ticker = time.NewTicker(c.opts.Interval)
			tickC = ticker.C
		}
	}

	defer func() {
		setTimer(false)

		if cancelFetch != nil {
			cancelFetch()
		}
	}()

	startFetch := func() {
		if cancelFetch != nil {
			cancelFetch()
		}

		gen++

		fetchCtx, cancel := context.WithCancel(ctx)
		cancelFetch = cancel

		c.update(func(s *State[T]) {
			if s.HasData {
				s.Phase = PhaseRefreshing
			} else {
				s.Phase = PhaseLoading
			}
		})

		go func(gen uint64) {
			data, err := c.fetch(fetchCtx)

			select {
			case c.results <- fetchResult[T]{gen: gen, data: data, err: err}:
			case <-ctx.Done():
			}
		}(gen)
	}

	setTimer(c.State().AutoRefresh)
	startFetch()

	for {
		select {
		case <-ctx.Done():
			return

		case <-tickC:
			// Ticks never stack a fetch on top of one in flight.
			if phase := c.State().Phase; phase == PhaseReady || phase == PhaseError {
				startFetch()
			}

		case req := <-c.requests:
			switch req.kind {
			case requestRefresh:
				startFetch()
			case requestAutoRefresh:
				c.update(func(s *State[T]) { s.AutoRefresh = req.on && c.opts.Interval > 0 })
				setTimer(req.on)
			case requestAction:
				if c.State().Pending[req.id] {
					logger.Debug("action already in flight", slog.String("id", req.id))
					continue
				}

				c.update(func(s *State[T]) { s.Pending[req.id] = true })

				go func(id string, fn ActionFunc) {
					ok := fn(ctx)

					select {
					case c.actions <- actionResult{id: id, ok: ok}:
					case <-ctx.Done():
					}
				}(req.id, req.action)
			}

		case res := <-c.results:
			if res.gen != gen {
				c.update(func(s *State[T]) { s.Superseded++ })
				continue
			}

			cancelFetch()
			cancelFetch = nil

			if res.err != nil {
				logger.Debug("refresh failed", slog.String("error", res.err.Error()))

				c.update(func(s *State[T]) {
					s.Phase = PhaseError
					s.Err = res.err
				})

				continue
			}

			c.update(func(s *State[T]) {
				s.Phase = PhaseReady
				s.Data = res.data
				s.HasData = true
				s.Err = nil
				s.FetchedAt = time.Now()
				s.Generation = res.gen
			})

		case res := <-c.actions:
			c.update(func(s *State[T]) {
				delete(s.Pending, res.id)
				s.LastAction = &ActionOutcome{ID: res.id, OK: res.ok, At: time.Now()}
			})

			startFetch()
		}
	}
}

func (c *Controller[T]) update(fn func(*State[T])) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()

	select {
	case c.changes <- struct{}{}:
	default:
	}
}

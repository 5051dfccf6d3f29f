package agentconfig

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/musher-dev/clawdash/internal/observability"
)

// DefaultDebounce collapses bursts of writes from editors and the gateway
// itself into one notification.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls OnChange after either configuration file changes.
type Watcher struct {
	dir      string
	onChange func()
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher returns a Watcher for the gateway configuration directory.
func NewWatcher(dir string, debounce time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:      dir,
		onChange: onChange,
		debounce: debounce,
	}
}

// Start begins watching. It is a no-op if already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the files: the gateway replaces its config
	// by rename, which drops watches on the old inode.
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true

	go w.run(ctx, watcher, w.stopCh, w.doneCh)

	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}

	w.running = false
	stopCh, doneCh, watcher := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	_ = watcher.Close()
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	logger := observability.FromContext(ctx)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if !relevant(event) {
				continue
			}

			logger.Debug("gateway config changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			timerCh = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			logger.Warn("gateway config watcher error", slog.String("error", err.Error()))
		case <-timerCh:
			timerCh = nil
			w.onChange()
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	switch filepath.Base(event.Name) {
	case StructuredFile, LegacyFile:
		return true
	default:
		return false
	}
}

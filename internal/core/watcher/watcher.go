package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"radar/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"golang.org/x/time/rate"
)

// Watcher reports changes to a fixed set of metafiles. It watches the parent
// directories so that files replaced by rename are still picked up.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	limiter    *rate.Limiter
	targets    map[string]bool
	targetDirs map[string]bool
	patterns   []glob.Glob
	onChange   func([]string)
	callbackMu sync.Mutex

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
	closed    bool
}

type Options struct {
	Debounce            time.Duration
	MaxReloadsPerSecond float64
	ReloadBurst         int
	// Patterns additionally match base names inside watched directories,
	// e.g. "meta*.json".
	Patterns []string
}

func NewWatcher(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiled := make([]glob.Glob, 0, len(opts.Patterns))
	for _, pattern := range opts.Patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if opts.MaxReloadsPerSecond > 0 {
		limit = rate.Limit(opts.MaxReloadsPerSecond)
	}
	burst := opts.ReloadBurst
	if burst <= 0 {
		burst = 1
	}

	return &Watcher{
		fsWatcher:  fsw,
		debounce:   opts.Debounce,
		limiter:    rate.NewLimiter(limit, burst),
		targets:    make(map[string]bool),
		targetDirs: make(map[string]bool),
		patterns:   compiled,
		onChange:   onChange,
		pending:    make(map[string]time.Time),
	}, nil
}

// Watch registers the given metafiles and starts the event loop.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(abs)
		if !w.targetDirs[dir] {
			if err := w.fsWatcher.Add(dir); err != nil {
				return err
			}
			w.targetDirs[dir] = true
		}
		w.targets[abs] = true
	}

	go w.run()
	return nil
}

// Targets returns the absolute paths being watched, sorted.
func (w *Watcher) Targets() []string {
	out := make([]string, 0, len(w.targets))
	for p := range w.targets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if !w.isTarget(event.Name) {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) isTarget(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if w.targets[abs] {
		return true
	}
	base := filepath.Base(abs)
	for _, g := range w.patterns {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.closed {
		return
	}
	w.pending[path] = time.Now()
	w.armLocked(w.debounce)
}

func (w *Watcher) armLocked(delay time.Duration) {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(delay, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}

	r := w.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		// Keep the batch and retry once the limiter has a token.
		r.Cancel()
		observability.ReloadsThrottledTotal.Inc()
		slog.Debug("reload throttled", "delay", delay, "pending", len(w.pending))
		w.armLocked(delay)
		w.pendingMu.Unlock()
		return
	}

	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	observability.ReloadsTotal.Inc()
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

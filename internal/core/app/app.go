package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"radar/internal/core/config"
	"radar/internal/core/watcher"
	"radar/internal/data/snapshots"
	"radar/internal/engine/analysis"
)

// Update is delivered to the update handler after every successful reload,
// and with Err set when a reload fails and the previous analysis is kept.
type Update struct {
	Analysis *Analysis
	Err      error
}

type App struct {
	Config *config.Config

	entryOpts analysis.EntryOptions

	mu           sync.RWMutex
	current      *Analysis
	lastErr      error
	lastLoadedAt time.Time

	updateMu sync.RWMutex
	onUpdate func(Update)

	storeMu       sync.Mutex
	store         *snapshots.Store
	activeWatcher *watcher.Watcher
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts, err := cfg.EntryOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}
	return &App{Config: cfg, entryOpts: opts}, nil
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emit(u Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(u)
	}
}

// Current returns the most recent successful analysis, or nil.
func (a *App) Current() *Analysis {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

func (a *App) setCurrent(an *Analysis, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
	if err == nil {
		a.current = an
		a.lastLoadedAt = time.Now().UTC()
	}
}

// Close releases the watcher and snapshot store, if open.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
		a.activeWatcher = nil
	}
	a.storeMu.Lock()
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.store = nil
	}
	a.storeMu.Unlock()
	if firstErr != nil {
		slog.Debug("app close", "error", firstErr)
	}
	return firstErr
}

package app

import (
	"context"
	"log/slog"

	"radar/internal/core/watcher"
)

// StartWatcher reloads the current metafile whenever it changes on disk.
func (a *App) StartWatcher(paths []string) error {
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:            a.Config.Watch.Debounce,
		MaxReloadsPerSecond: a.Config.Watch.MaxReloadsPerSecond,
		ReloadBurst:         a.Config.Watch.ReloadBurst,
		Patterns:            a.Config.Watch.Patterns,
	}, a.HandleChanges)
	if err != nil {
		return err
	}
	if err := w.Watch(paths); err != nil {
		_ = w.Close()
		return err
	}
	a.activeWatcher = w
	slog.Info("watching metafiles", "paths", w.Targets())
	return nil
}

// HandleChanges re-analyses each changed metafile. The last path wins as the
// published analysis; a failed reload keeps the previous one.
func (a *App) HandleChanges(paths []string) {
	ctx := context.Background()
	for _, path := range paths {
		an, err := a.LoadFile(ctx, path)
		if err != nil {
			slog.Warn("reload failed, keeping previous analysis", "path", path, "error", err)
			a.emit(Update{Analysis: a.Current(), Err: err})
			continue
		}
		slog.Debug("metafile reloaded", "path", path, "entry", an.Entry,
			"initial_bytes", an.Summary.Initial.TotalBytes, "lazy_bytes", an.Summary.Lazy.TotalBytes)

		if a.Config.DB.Enabled {
			if _, err := a.SaveSnapshot(ctx, an, ""); err != nil {
				slog.Warn("failed to save snapshot", "path", path, "error", err)
			}
		}
		a.emit(Update{Analysis: an})
	}
}

package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	coreerrors "radar/internal/core/errors"
	"radar/internal/data/snapshots"
)

// Snapshots opens the snapshot store on first use.
func (a *App) Snapshots() (*snapshots.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}
	path := a.Config.DBPath()
	store, err := snapshots.Open(path, a.Config.DB.BusyTimeout)
	if err != nil {
		if snapshots.IsCorruptError(err) {
			return nil, coreerrors.AddContext(coreerrors.Wrap(err, coreerrors.CodeValidationError,
				"snapshot database is unreadable; move it aside or set db.path"), coreerrors.CtxPath, path)
		}
		return nil, err
	}
	a.store = store
	return store, nil
}

// SaveSnapshot stores the given analysis. An empty name defaults to the
// metafile's base name.
func (a *App) SaveSnapshot(ctx context.Context, an *Analysis, name string) (snapshots.Snapshot, error) {
	if an == nil {
		return snapshots.Snapshot{}, coreerrors.New(coreerrors.CodeValidationError, "no analysis to save")
	}
	store, err := a.Snapshots()
	if err != nil {
		return snapshots.Snapshot{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(an.Source)
	}
	return store.Save(ctx, name, an.Raw, Totals(an))
}

func (a *App) ListSnapshots(ctx context.Context) ([]snapshots.Snapshot, error) {
	store, err := a.Snapshots()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

// AnalyzeSnapshot restores a stored metafile and analyses it with the current
// configuration without publishing it.
func (a *App) AnalyzeSnapshot(ctx context.Context, id string) (*Analysis, error) {
	store, err := a.Snapshots()
	if err != nil {
		return nil, err
	}
	snap, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeBytes(ctx, snapshotSource(snap), snap.Raw)
}

// LoadSnapshot is AnalyzeSnapshot followed by publishing the result.
func (a *App) LoadSnapshot(ctx context.Context, id string) (*Analysis, error) {
	an, err := a.AnalyzeSnapshot(ctx, id)
	a.setCurrent(an, err)
	return an, err
}

func (a *App) DeleteSnapshot(ctx context.Context, id string) error {
	store, err := a.Snapshots()
	if err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

// Totals extracts the headline numbers stored with a snapshot.
func Totals(an *Analysis) snapshots.Totals {
	return snapshots.Totals{
		EntryOutput:  an.Entry,
		InputCount:   len(an.Graph.Inputs),
		OutputCount:  len(an.Graph.Outputs),
		InitialBytes: an.Summary.Initial.TotalBytes,
		LazyBytes:    an.Summary.Lazy.TotalBytes,
	}
}

func snapshotSource(s snapshots.Snapshot) string {
	return fmt.Sprintf("snapshot:%s (%s)", s.ID, s.Name)
}

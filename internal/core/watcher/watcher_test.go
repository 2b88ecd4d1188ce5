package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher_ReportsMetafileWrites(t *testing.T) {
	tmpDir := t.TempDir()
	meta := filepath.Join(tmpDir, "meta.json")
	if err := os.WriteFile(meta, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 4)
	w, err := NewWatcher(Options{Debounce: 50 * time.Millisecond}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{meta}); err != nil {
		t.Fatal(err)
	}
	if got := w.Targets(); len(got) != 1 || got[0] != meta {
		t.Fatalf("unexpected targets %v", got)
	}

	// Unrelated siblings are ignored.
	if err := os.WriteFile(filepath.Join(tmpDir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(meta, []byte(`{"inputs":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		if len(paths) != 1 || filepath.Base(paths[0]) != "meta.json" {
			t.Fatalf("expected only meta.json, got %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for metafile change")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	tmpDir := t.TempDir()
	meta := filepath.Join(tmpDir, "meta.json")
	if err := os.WriteFile(meta, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 8)
	w, err := NewWatcher(Options{Debounce: 200 * time.Millisecond}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{meta}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(meta, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced change")
	}

	select {
	case paths := <-changed:
		t.Fatalf("expected a single batch, got another: %v", paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_PatternMatchesSiblings(t *testing.T) {
	tmpDir := t.TempDir()
	meta := filepath.Join(tmpDir, "meta.json")
	if err := os.WriteFile(meta, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan []string, 4)
	w, err := NewWatcher(Options{Debounce: 50 * time.Millisecond, Patterns: []string{"meta-*.json"}}, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{meta}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "meta-admin.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		if filepath.Base(paths[0]) != "meta-admin.json" {
			t.Fatalf("unexpected paths %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pattern match")
	}
}

func TestNewWatcher_InvalidPattern(t *testing.T) {
	if _, err := NewWatcher(Options{Patterns: []string{"[oops"}}, func([]string) {}); err == nil {
		t.Fatal("expected invalid pattern error")
	}
}

func TestWatcher_CloseStopsPendingFlush(t *testing.T) {
	called := make(chan struct{}, 1)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, func([]string) {
		called <- struct{}{}
	})
	if err != nil {
		t.Fatal(err)
	}

	w.scheduleChange("meta.json")
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-called:
		t.Fatal("callback fired after Close")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_LimiterDefersSecondBatch(t *testing.T) {
	calls := make(chan time.Time, 4)
	w, err := NewWatcher(Options{Debounce: 10 * time.Millisecond, MaxReloadsPerSecond: 2, ReloadBurst: 1}, func([]string) {
		calls <- time.Now()
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.scheduleChange("a.json")
	first := waitCall(t, calls)
	w.scheduleChange("b.json")
	second := waitCall(t, calls)

	if gap := second.Sub(first); gap < 300*time.Millisecond {
		t.Fatalf("expected limiter to space reloads, gap was %v", gap)
	}
}

func waitCall(t *testing.T, calls <-chan time.Time) time.Time {
	t.Helper()
	select {
	case ts := <-calls:
		return ts
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
		return time.Time{}
	}
}

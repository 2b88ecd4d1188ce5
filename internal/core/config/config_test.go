package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "radar.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
metafiles = ["dist/meta.json", " "]

[analysis]
entry_hints = ["main"]
server_outputs = ["**/server/**"]
script_extensions = ["JS", ".mjs"]

[watch]
debounce = "1s"
max_reloads_per_second = 5
patterns = [" meta-*.json "]

[db]
enabled = true
path = "/tmp/radar.db"

[ui]
chunk_filter = "Initial"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Metafiles) != 1 || cfg.Metafiles[0] != "dist/meta.json" {
		t.Errorf("unexpected metafiles: %v", cfg.Metafiles)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Patterns) != 1 || cfg.Watch.Patterns[0] != "meta-*.json" {
		t.Errorf("unexpected watch patterns: %v", cfg.Watch.Patterns)
	}
	if cfg.Watch.MaxReloadsPerSecond != 5 || cfg.Watch.ReloadBurst != 1 {
		t.Errorf("unexpected watch config: %+v", cfg.Watch)
	}
	if got := strings.Join(cfg.Analysis.ScriptExtensions, ","); got != ".js,.mjs" {
		t.Errorf("unexpected extensions: %s", got)
	}
	if len(cfg.Analysis.ServerOutputs) != 1 {
		t.Errorf("expected explicit server outputs to replace defaults, got %v", cfg.Analysis.ServerOutputs)
	}
	if cfg.UI.ChunkFilter != FilterInitial {
		t.Errorf("expected initial filter, got %q", cfg.UI.ChunkFilter)
	}
	if cfg.DBPath() != "/tmp/radar.db" {
		t.Errorf("expected absolute db path to be kept, got %q", cfg.DBPath())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if len(cfg.Analysis.ServerOutputs) == 0 || len(cfg.Analysis.EntryHints) == 0 {
		t.Error("expected default server outputs and entry hints")
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.UI.ChunkFilter != FilterAll {
		t.Errorf("unexpected filter %q", cfg.UI.ChunkFilter)
	}

	opts, err := cfg.EntryOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Filter == nil {
		t.Fatal("expected default server output filter")
	}
	if !opts.Filter("dist/server/main.js", nil) {
		t.Error("expected server bundle to be filtered")
	}
}

func TestLoad_EmptyServerOutputsDisablesFilter(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[analysis]\nserver_outputs = []\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	opts, err := cfg.EntryOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Filter != nil {
		t.Fatal("expected no filter")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{name: "version", content: "version = 3\n", errPart: "unsupported config version"},
		{name: "bad glob", content: "[analysis]\nserver_outputs = [\"[oops\"]\n", errPart: "analysis.server_outputs[0]"},
		{name: "bad filter", content: "[ui]\nchunk_filter = \"huge\"\n", errPart: "ui.chunk_filter"},
		{name: "bad metrics addr", content: "[observability]\nenabled = true\nmetrics_addr = \"nope\"\n", errPart: "observability.metrics_addr"},
		{name: "tracing without endpoint", content: "[observability]\nenabled = true\nenable_tracing = true\n", errPart: "otlp_endpoint"},
		{name: "bad watch pattern", content: "[watch]\npatterns = [\"[oops\"]\n", errPart: "watch.patterns[0]"},
		{name: "negative debounce", content: "[watch]\ndebounce = \"-1s\"\n", errPart: "watch.debounce"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errPart) {
				t.Fatalf("expected error containing %q, got %v", tc.errPart, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RADAR_DB_PATH", "/var/lib/radar.db")
	t.Setenv("RADAR_WATCH_DEBOUNCE", "2s")
	t.Setenv("RADAR_DB_ENABLED", "TRUE")
	t.Setenv("RADAR_WATCH_MAX_RELOADS_PER_SECOND", "not-a-number")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if cfg.DB.Path != "/var/lib/radar.db" || !cfg.DB.Enabled {
		t.Errorf("unexpected db config: %+v", cfg.DB)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxReloadsPerSecond != 2 {
		t.Errorf("expected invalid override to be ignored, got %v", cfg.Watch.MaxReloadsPerSecond)
	}
}

func TestResolveRelative(t *testing.T) {
	if got := ResolveRelative("/base", "x/y.db"); got != filepath.Join("/base", "x", "y.db") {
		t.Errorf("unexpected path %q", got)
	}
	if got := ResolveRelative("/base", "/abs.db"); got != "/abs.db" {
		t.Errorf("unexpected path %q", got)
	}
	t.Setenv("XDG_STATE_HOME", "/state")
	if StateDir() != filepath.Join("/state", "radar") {
		t.Errorf("unexpected state dir %q", StateDir())
	}
}

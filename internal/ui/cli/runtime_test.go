package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "radar/internal/core/app"
	"radar/internal/core/config"
)

var fixturePath = filepath.Join("..", "..", "engine", "metafile", "testdata", "app.json")

func newTestApp(t *testing.T) *coreapp.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DB.Path = filepath.Join(t.TempDir(), "snapshots.db")
	a, err := coreapp.New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func runExecute(t *testing.T, a *coreapp.App, opts cliOptions) (int, string, string) {
	t.Helper()
	sources, err := applyModeOptions(&opts, a.Config)
	if err != nil {
		t.Fatalf("applyModeOptions: %v", err)
	}
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), a, opts, sources, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestApplyModeOptions_RejectsCombinedModes(t *testing.T) {
	opts := &cliOptions{path: "src/a.ts", importers: "src/b.ts", args: []string{"meta.json"}}

	_, err := applyModeOptions(opts, config.DefaultConfig())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyModeOptions_CompareRequiresTwoBuilds(t *testing.T) {
	opts := &cliOptions{compare: true, args: []string{"only-one.json"}}

	_, err := applyModeOptions(opts, config.DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "requires two builds") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyModeOptions_FromSnapshotIsTheBeforeBuild(t *testing.T) {
	opts := &cliOptions{compare: true, fromSnapshot: "abc123", args: []string{"after.json"}}

	sources, err := applyModeOptions(opts, config.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 2 || sources[0].snapshotID != "abc123" || sources[1].path != "after.json" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestApplyModeOptions_FallsBackToConfiguredMetafile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metafiles = []string{"/builds/meta.json"}

	sources, err := applyModeOptions(&cliOptions{}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sources) != 1 || sources[0].path != "/builds/meta.json" {
		t.Fatalf("unexpected sources: %+v", sources)
	}
}

func TestApplyModeOptions_RequiresAMetafile(t *testing.T) {
	_, err := applyModeOptions(&cliOptions{}, config.DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "no metafile given") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyModeOptions_RejectsExtraMetafiles(t *testing.T) {
	_, err := applyModeOptions(&cliOptions{args: []string{"a.json", "b.json"}}, config.DefaultConfig())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyModeOptions_WatchRequiresFile(t *testing.T) {
	opts := &cliOptions{watch: true, args: []string{"snapshot:abc"}}

	_, err := applyModeOptions(opts, config.DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "--watch") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyModeOptions_ListRejectsMetafile(t *testing.T) {
	_, err := applyModeOptions(&cliOptions{list: true, args: []string{"meta.json"}}, config.DefaultConfig())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyModeOptions_Overrides(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := &cliOptions{entry: " dist/admin.js ", filter: "LAZY", args: []string{"meta.json"}}

	if _, err := applyModeOptions(opts, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Analysis.Entry != "dist/admin.js" {
		t.Fatalf("unexpected entry: %q", cfg.Analysis.Entry)
	}
	if cfg.UI.ChunkFilter != config.FilterLazy {
		t.Fatalf("unexpected filter: %q", cfg.UI.ChunkFilter)
	}

	_, err := applyModeOptions(&cliOptions{filter: "server", args: []string{"meta.json"}}, cfg)
	if err == nil {
		t.Fatal("expected invalid filter error")
	}
}

func TestParseSource(t *testing.T) {
	if got := parseSource("snapshot: 1234"); got.snapshotID != "1234" || got.path != "" {
		t.Fatalf("unexpected snapshot source: %+v", got)
	}
	if got := parseSource("dist/meta.json"); got.path != "dist/meta.json" {
		t.Fatalf("unexpected path source: %+v", got)
	}
	if got := parseSource("snapshot:ab").String(); got != "snapshot:ab" {
		t.Fatalf("unexpected String(): %q", got)
	}
}

func TestChunkFilter(t *testing.T) {
	if f := chunkFilter(config.FilterAll, "x"); !f.Initial || !f.Lazy || f.Term != "x" {
		t.Fatalf("unexpected all filter: %+v", f)
	}
	if f := chunkFilter(config.FilterInitial, ""); !f.Initial || f.Lazy {
		t.Fatalf("unexpected initial filter: %+v", f)
	}
	if f := chunkFilter(config.FilterLazy, ""); f.Initial || !f.Lazy {
		t.Fatalf("unexpected lazy filter: %+v", f)
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, path, err := loadConfig(defaultConfigPath, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no config path, got %q", path)
	}
	if cfg.UI.ChunkFilter != config.FilterAll {
		t.Fatalf("expected defaults, got %+v", cfg.UI)
	}
}

func TestLoadConfig_DiscoversAndResolvesMetafiles(t *testing.T) {
	dir := t.TempDir()
	content := "version = 1\nmetafiles = [\"dist/meta.json\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ".radar.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := loadConfig(defaultConfigPath, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, ".radar.toml") {
		t.Fatalf("unexpected config path: %q", path)
	}
	if want := filepath.Join(dir, "dist", "meta.json"); cfg.Metafiles[0] != want {
		t.Fatalf("expected %q, got %q", want, cfg.Metafiles[0])
	}
}

func TestLoadConfig_CustomPathNoFallback(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing custom config")
	}
}

func TestExecute_Summary(t *testing.T) {
	code, out, _ := runExecute(t, newTestApp(t), cliOptions{args: []string{fixturePath}})
	if code != 0 {
		t.Fatalf("unexpected exit code %d", code)
	}
	for _, want := range []string{
		"Entry:    dist/main.js (src/main.ts)",
		"Initial:  2 chunks, 3.0 kB",
		"Lazy:     2 chunks, 750 B",
		"dist/main.js (entry)",
		"dist/leaf.js",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "server.mjs") {
		t.Errorf("server output must not be listed:\n%s", out)
	}
}

func TestExecute_SummaryHonoursFilter(t *testing.T) {
	code, out, _ := runExecute(t, newTestApp(t), cliOptions{filter: "lazy", args: []string{fixturePath}})
	if code != 0 {
		t.Fatalf("unexpected exit code %d", code)
	}
	if strings.Contains(out, "dist/app.js") || !strings.Contains(out, "dist/lazy.js") {
		t.Fatalf("expected lazy chunks only:\n%s", out)
	}
}

func TestExecute_InclusionPath(t *testing.T) {
	code, out, _ := runExecute(t, newTestApp(t), cliOptions{path: "src/leaf.ts", args: []string{fixturePath}})
	if code != 0 {
		t.Fatalf("unexpected exit code %d", code)
	}
	if !strings.Contains(out, "Inclusion path for src/leaf.ts (3 steps)") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, `2. src/app.ts [initial] dynamically imports "./lazy"`) {
		t.Fatalf("missing dynamic step:\n%s", out)
	}
}

func TestExecute_InclusionPathForEntryPoint(t *testing.T) {
	_, out, _ := runExecute(t, newTestApp(t), cliOptions{path: "src/main.ts", args: []string{fixturePath}})
	if !strings.Contains(out, "src/main.ts is the entry point.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestExecute_UnknownInput(t *testing.T) {
	code, _, errOut := runExecute(t, newTestApp(t), cliOptions{path: "src/nope.ts", args: []string{fixturePath}})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "NOT_FOUND") {
		t.Fatalf("unexpected stderr: %s", errOut)
	}
}

func TestExecute_Importers(t *testing.T) {
	code, out, _ := runExecute(t, newTestApp(t), cliOptions{importers: "src/lazy.ts", args: []string{fixturePath}})
	if code != 0 {
		t.Fatalf("unexpected exit code %d", code)
	}
	if !strings.Contains(out, "src/lazy.ts is imported by 1 file") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, `import("./lazy")`) || !strings.Contains(out, "dist/app.js, 2.0 kB") {
		t.Fatalf("unexpected importer line:\n%s", out)
	}
}

func TestExecute_BestChunk(t *testing.T) {
	_, out, _ := runExecute(t, newTestApp(t), cliOptions{best: "src/leaf.ts", args: []string{fixturePath}})
	if !strings.Contains(out, "src/leaf.ts -> dist/leaf.js [lazy, 250 B] (bundles it)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestExecute_GraphExport(t *testing.T) {
	code, out, _ := runExecute(t, newTestApp(t), cliOptions{graph: "mermaid", args: []string{fixturePath}})
	if code != 0 {
		t.Fatalf("unexpected exit code %d", code)
	}
	if !strings.HasPrefix(out, "flowchart LR") || !strings.Contains(out, "dist_app_js -.->|import()| dist_lazy_js") {
		t.Fatalf("unexpected graph:\n%s", out)
	}
	if strings.Contains(out, "server") {
		t.Fatalf("server output should be excluded:\n%s", out)
	}
}

func TestApplyModeOptions_RejectsUnknownGraphFormat(t *testing.T) {
	opts := &cliOptions{graph: "svg", args: []string{"meta.json"}}

	_, err := applyModeOptions(opts, config.DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "--graph must be one of") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecute_ClassificationErrorHint(t *testing.T) {
	code, _, errOut := runExecute(t, newTestApp(t), cliOptions{entry: "dist/missing.js", args: []string{fixturePath}})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "hint: pass --entry") {
		t.Fatalf("expected hint, got %s", errOut)
	}
}

func TestExecute_CompareIdenticalBuilds(t *testing.T) {
	code, out, _ := runExecute(t, newTestApp(t), cliOptions{compare: true, args: []string{fixturePath, fixturePath}})
	if code != 0 {
		t.Fatalf("unexpected exit code %d", code)
	}
	if !strings.Contains(out, "Total change: 0 B") || !strings.Contains(out, "No chunk changes.") {
		t.Fatalf("unexpected comparison:\n%s", out)
	}
}

func TestExecute_SnapshotLifecycle(t *testing.T) {
	a := newTestApp(t)

	code, out, _ := runExecute(t, a, cliOptions{save: true, name: "baseline", args: []string{fixturePath}})
	if code != 0 || !strings.Contains(out, "Saved snapshot") {
		t.Fatalf("save failed (%d):\n%s", code, out)
	}

	_, out, _ = runExecute(t, a, cliOptions{list: true})
	if !strings.Contains(out, "baseline") || !strings.Contains(out, "dist/main.js") {
		t.Fatalf("unexpected listing:\n%s", out)
	}

	list, err := a.ListSnapshots(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("list snapshots: %v (%d)", err, len(list))
	}
	id := list[0].ID

	code, out, _ = runExecute(t, a, cliOptions{path: "src/leaf.ts", args: []string{"snapshot:" + id[:8]}})
	if code != 0 || !strings.Contains(out, "Inclusion path for src/leaf.ts") {
		t.Fatalf("snapshot analysis failed (%d):\n%s", code, out)
	}

	code, out, _ = runExecute(t, a, cliOptions{compare: true, fromSnapshot: id, args: []string{fixturePath}})
	if code != 0 || !strings.Contains(out, "Total change: 0 B") {
		t.Fatalf("snapshot comparison failed (%d):\n%s", code, out)
	}

	// Delete with the short id shown by --list.
	listed := shortID(id)
	code, _, errOut := runExecute(t, a, cliOptions{deleteID: listed})
	if code != 0 {
		t.Fatalf("delete failed (%d): %s", code, errOut)
	}
	_, out, _ = runExecute(t, a, cliOptions{list: true})
	if !strings.Contains(out, "No snapshots saved.") {
		t.Fatalf("expected empty listing:\n%s", out)
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--path", "src/a.ts", "--entry", "dist/main.js", "meta.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.path != "src/a.ts" || opts.entry != "dist/main.js" || len(opts.args) != 1 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.configPath != defaultConfigPath {
		t.Fatalf("unexpected config path: %q", opts.configPath)
	}
}

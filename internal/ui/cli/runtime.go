package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "radar/internal/core/app"
	"radar/internal/core/config"
	coreerrors "radar/internal/core/errors"
	"radar/internal/engine/analysis"
	"radar/internal/shared/observability"
	"radar/internal/ui/report/formats"
)

const snapshotPrefix = "snapshot:"

// source is a metafile on disk or a saved snapshot.
type source struct {
	path       string
	snapshotID string
}

func parseSource(arg string) source {
	if id, ok := strings.CutPrefix(arg, snapshotPrefix); ok {
		return source{snapshotID: strings.TrimSpace(id)}
	}
	return source{path: arg}
}

func (s source) String() string {
	if s.snapshotID != "" {
		return snapshotPrefix + s.snapshotID
	}
	return s.path
}

func Run(args []string) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Printf("radar v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	slog.Debug("config loaded", "path", cfgPath)

	sources, err := applyModeOptions(&opts, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	a, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopObservability := startObservability(ctx, cfg, a.Health)
	defer stopObservability()

	return execute(ctx, a, opts, sources, os.Stdout, os.Stderr)
}

// execute runs the selected mode against an initialised app.
func execute(ctx context.Context, a *coreapp.App, opts cliOptions, sources []source, stdout, stderr io.Writer) int {
	switch {
	case opts.list:
		list, err := a.ListSnapshots(ctx)
		if err != nil {
			return reportError(stderr, err)
		}
		writeSnapshots(stdout, list, time.Now())
		return 0
	case opts.deleteID != "":
		if err := a.DeleteSnapshot(ctx, opts.deleteID); err != nil {
			return reportError(stderr, err)
		}
		fmt.Fprintf(stdout, "Deleted snapshot %s\n", opts.deleteID)
		return 0
	case opts.compare:
		before, err := analyzeSource(ctx, a, sources[0])
		if err != nil {
			return reportError(stderr, err)
		}
		after, err := analyzeSource(ctx, a, sources[1])
		if err != nil {
			return reportError(stderr, err)
		}
		writeComparison(stdout, before, after, coreapp.Compare(before, after))
		return 0
	}

	an, err := loadSource(ctx, a, sources[0])
	if err != nil {
		return reportError(stderr, err)
	}

	if opts.save {
		snap, err := a.SaveSnapshot(ctx, an, opts.name)
		if err != nil {
			return reportError(stderr, err)
		}
		fmt.Fprintf(stdout, "Saved snapshot %s (%s)\n", snap.ID, snap.Name)
	}

	switch {
	case opts.path != "":
		if !knownInput(an, opts.path) {
			return reportError(stderr, unknownInput(opts.path))
		}
		writeInclusionPath(stdout, an, opts.path, an.InclusionPath(opts.path))
		return 0
	case opts.importers != "":
		if !knownInput(an, opts.importers) {
			return reportError(stderr, unknownInput(opts.importers))
		}
		writeImportSources(stdout, opts.importers, an.ImportSources(opts.importers))
		return 0
	case opts.best != "":
		chunk, ok := an.BestChunk(opts.best, nil)
		if !ok {
			return reportError(stderr, coreerrors.AddContext(
				coreerrors.New(coreerrors.CodeNotFound, "no chunk contains this file or its imports"), coreerrors.CtxPath, opts.best))
		}
		writeBestChunk(stdout, an, opts.best, chunk)
		return 0
	case opts.graph != "":
		out, err := formats.Generate(opts.graph, formats.ChunkGraph{Graph: an.Graph, Summary: an.Summary, Entry: an.Entry})
		if err != nil {
			return reportError(stderr, err)
		}
		fmt.Fprint(stdout, out)
		return 0
	}

	filter := chunkFilter(a.Config.UI.ChunkFilter, opts.search)
	var watchPaths []string
	if opts.watch {
		watchPaths = []string{sources[0].path}
	}

	if opts.ui {
		if err := runUI(ctx, a, an, filter, watchPaths); err != nil {
			slog.Error("failed to run UI", "error", err)
			return 1
		}
		return 0
	}

	writeSummary(stdout, an, filter)
	if !opts.watch {
		return 0
	}
	return runWatch(ctx, a, watchPaths, filter, stdout, stderr)
}

func runWatch(ctx context.Context, a *coreapp.App, paths []string, filter analysis.ChunkFilter, stdout, stderr io.Writer) int {
	a.SetUpdateHandler(func(u coreapp.Update) {
		if u.Err != nil {
			fmt.Fprintf(stderr, "reload failed: %v\n", u.Err)
			return
		}
		fmt.Fprintf(stdout, "\n--- reloaded %s ---\n", u.Analysis.LoadedAt.Local().Format("15:04:05"))
		writeSummary(stdout, u.Analysis, filter)
	})
	if err := a.StartWatcher(paths); err != nil {
		return reportError(stderr, err)
	}
	<-ctx.Done()
	return 0
}

func loadSource(ctx context.Context, a *coreapp.App, src source) (*coreapp.Analysis, error) {
	if src.snapshotID != "" {
		return a.LoadSnapshot(ctx, src.snapshotID)
	}
	return a.LoadFile(ctx, src.path)
}

func analyzeSource(ctx context.Context, a *coreapp.App, src source) (*coreapp.Analysis, error) {
	if src.snapshotID != "" {
		return a.AnalyzeSnapshot(ctx, src.snapshotID)
	}
	return a.AnalyzeFile(ctx, src.path)
}

func knownInput(an *coreapp.Analysis, path string) bool {
	_, ok := an.Graph.Inputs[path]
	return ok
}

func unknownInput(path string) error {
	return coreerrors.AddContext(coreerrors.New(coreerrors.CodeNotFound, "input file is not part of this build"), coreerrors.CtxPath, path)
}

func reportError(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	if coreerrors.IsCode(err, coreerrors.CodeClassificationError) {
		fmt.Fprintln(w, "hint: pass --entry <output> or set analysis.entry in the config")
	}
	return 1
}

func chunkFilter(mode, term string) analysis.ChunkFilter {
	f := analysis.ChunkFilter{Term: term}
	switch mode {
	case config.FilterInitial:
		f.Initial = true
	case config.FilterLazy:
		f.Lazy = true
	default:
		f.Initial, f.Lazy = true, true
	}
	return f
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		resolveMetafiles(cfg, filepath.Dir(path))
		return cfg, path, nil
	}

	candidates, err := discoverDefaultConfig(cwd)
	if err != nil {
		return nil, "", err
	}

	for _, candidate := range candidates {
		cfg, loadErr := config.Load(candidate)
		if loadErr == nil {
			resolveMetafiles(cfg, filepath.Dir(candidate))
			return cfg, candidate, nil
		}
		if os.IsNotExist(loadErr) {
			continue
		}
		return nil, "", loadErr
	}

	// No config file is fine: the metafile usually comes from the command line.
	cfg := config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	return cfg, "", nil
}

func discoverDefaultConfig(cwd string) ([]string, error) {
	if strings.TrimSpace(cwd) == "" {
		return nil, fmt.Errorf("cwd must not be empty")
	}
	return []string{
		filepath.Clean(filepath.Join(cwd, "radar.toml")),
		filepath.Clean(filepath.Join(cwd, ".radar.toml")),
	}, nil
}

func resolveMetafiles(cfg *config.Config, base string) {
	for i, m := range cfg.Metafiles {
		cfg.Metafiles[i] = config.ResolveRelative(base, m)
	}
}

// applyModeOptions validates flag combinations, folds overrides into cfg and
// returns the metafile sources the selected mode works on.
func applyModeOptions(opts *cliOptions, cfg *config.Config) ([]source, error) {
	modeCount := 0
	for _, set := range []bool{opts.path != "", opts.importers != "", opts.best != "", opts.graph != "", opts.compare, opts.list, opts.deleteID != ""} {
		if set {
			modeCount++
		}
	}
	if modeCount > 1 {
		return nil, fmt.Errorf("--path, --importers, --best, --graph, --compare, --list and --delete-snapshot are mutually exclusive")
	}

	if opts.entry != "" {
		cfg.Analysis.Entry = strings.TrimSpace(opts.entry)
	}
	if opts.filter != "" {
		switch f := strings.ToLower(strings.TrimSpace(opts.filter)); f {
		case config.FilterAll, config.FilterInitial, config.FilterLazy:
			cfg.UI.ChunkFilter = f
		default:
			return nil, fmt.Errorf("--filter must be one of all, initial, lazy; got %q", opts.filter)
		}
	}

	if opts.graph != "" {
		switch strings.ToLower(strings.TrimSpace(opts.graph)) {
		case "mermaid", "dot", "tsv":
		default:
			return nil, fmt.Errorf("--graph must be one of mermaid, dot, tsv; got %q", opts.graph)
		}
		if opts.watch || opts.ui {
			return nil, fmt.Errorf("--graph cannot be combined with --watch or --ui")
		}
	}

	if opts.list || opts.deleteID != "" {
		if len(opts.args) > 0 || opts.fromSnapshot != "" {
			return nil, fmt.Errorf("--list and --delete-snapshot do not accept a metafile")
		}
		return nil, nil
	}

	sources := make([]source, 0, 2)
	if opts.fromSnapshot != "" {
		sources = append(sources, source{snapshotID: strings.TrimSpace(opts.fromSnapshot)})
	}
	for _, arg := range opts.args {
		sources = append(sources, parseSource(arg))
	}

	if opts.compare {
		if len(sources) != 2 {
			return nil, fmt.Errorf("compare mode requires two builds: radar --compare <before> <after>")
		}
		if opts.save || opts.watch || opts.ui {
			return nil, fmt.Errorf("--compare cannot be combined with --save, --watch or --ui")
		}
		return sources, nil
	}

	if len(sources) == 0 && len(cfg.Metafiles) > 0 {
		sources = append(sources, source{path: cfg.Metafiles[0]})
	}
	switch {
	case len(sources) == 0:
		return nil, fmt.Errorf("no metafile given: pass a path or set metafiles in the config")
	case len(sources) > 1:
		return nil, fmt.Errorf("expected a single metafile, got %d", len(sources))
	}

	if opts.watch && sources[0].snapshotID != "" {
		return nil, fmt.Errorf("--watch requires a metafile path, not a snapshot")
	}
	return sources, nil
}

func startObservability(ctx context.Context, cfg *config.Config, health observability.HealthFunc) func() {
	if !cfg.Observability.Enabled {
		return func() {}
	}

	var shutdowns []func(context.Context) error
	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
			Endpoint:    cfg.Observability.OTLPEndpoint,
			ServiceName: cfg.Observability.ServiceName,
			Insecure:    true,
		})
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			shutdowns = append(shutdowns, shutdown)
		}
	}

	server := observability.NewServer(cfg.Observability.MetricsAddr, health)
	if err := server.Start(ctx); err != nil {
		slog.Warn("observability server disabled", "error", err)
	} else {
		shutdowns = append(shutdowns, server.Stop)
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, fn := range shutdowns {
			if err := fn(shutdownCtx); err != nil {
				slog.Debug("observability shutdown", "error", err)
			}
		}
	}
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	return filepath.Join(config.StateDir(), "radar.log")
}

package config

import (
	"fmt"
	"net"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	for i, pattern := range cfg.Analysis.ServerOutputs {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("analysis.server_outputs[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	if len(cfg.Analysis.ScriptExtensions) == 0 {
		return fmt.Errorf("analysis.script_extensions must not be empty")
	}
	for i, ext := range cfg.Analysis.ScriptExtensions {
		if len(ext) < 2 {
			return fmt.Errorf("analysis.script_extensions[%d]: invalid extension %q", i, ext)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxReloadsPerSecond <= 0 {
		return fmt.Errorf("watch.max_reloads_per_second must be > 0")
	}
	for i, pattern := range cfg.Watch.Patterns {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("watch.patterns[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if cfg.DB.Path == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.MetricsAddr); err != nil {
		return fmt.Errorf("observability.metrics_addr %q: %w", cfg.Observability.MetricsAddr, err)
	}
	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when tracing is enabled")
	}
	return nil
}

func validateUI(cfg *Config) error {
	switch cfg.UI.ChunkFilter {
	case FilterAll, FilterInitial, FilterLazy:
		return nil
	default:
		return fmt.Errorf("ui.chunk_filter must be one of: all, initial, lazy (got %q)", cfg.UI.ChunkFilter)
	}
}

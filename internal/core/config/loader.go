package config

import (
	"os"
	"strings"
	"time"

	"radar/internal/engine/analysis"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysis(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}
	if err := validateUI(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Analysis.EntryHints == nil {
		cfg.Analysis.EntryHints = []string{"main", "index"}
	}
	if cfg.Analysis.ServerOutputs == nil {
		cfg.Analysis.ServerOutputs = append([]string(nil), analysis.DefaultServerOutputPatterns...)
	}
	if len(cfg.Analysis.ScriptExtensions) == 0 {
		cfg.Analysis.ScriptExtensions = []string{".js", ".mjs", ".cjs"}
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxReloadsPerSecond <= 0 {
		cfg.Watch.MaxReloadsPerSecond = 2
	}
	if cfg.Watch.ReloadBurst <= 0 {
		cfg.Watch.ReloadBurst = 1
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "snapshots.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 2 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.MetricsAddr) == "" {
		cfg.Observability.MetricsAddr = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "radar"
	}

	if strings.TrimSpace(cfg.UI.ChunkFilter) == "" {
		cfg.UI.ChunkFilter = FilterAll
	}
}

func normalize(cfg *Config) {
	cfg.Metafiles = trimAll(cfg.Metafiles)
	cfg.Analysis.Entry = strings.TrimSpace(cfg.Analysis.Entry)
	cfg.Analysis.EntryHints = trimAll(cfg.Analysis.EntryHints)
	cfg.Analysis.ServerOutputs = trimAll(cfg.Analysis.ServerOutputs)
	cfg.Watch.Patterns = trimAll(cfg.Watch.Patterns)

	exts := trimAll(cfg.Analysis.ScriptExtensions)
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	cfg.Analysis.ScriptExtensions = exts

	cfg.DB.Path = strings.TrimSpace(cfg.DB.Path)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.UI.ChunkFilter = strings.ToLower(strings.TrimSpace(cfg.UI.ChunkFilter))
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

package config

import (
	"time"

	"radar/internal/engine/analysis"
)

type Config struct {
	Version       int           `toml:"version"`
	Metafiles     []string      `toml:"metafiles"`
	Analysis      Analysis      `toml:"analysis"`
	Watch         Watch         `toml:"watch"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
	UI            UI            `toml:"ui"`
}

type Analysis struct {
	// Entry pins the entry output and skips automatic selection.
	Entry            string   `toml:"entry"`
	EntryHints       []string `toml:"entry_hints"`
	ServerOutputs    []string `toml:"server_outputs"`
	ScriptExtensions []string `toml:"script_extensions"`
}

type Watch struct {
	Debounce            time.Duration `toml:"debounce"`
	MaxReloadsPerSecond float64       `toml:"max_reloads_per_second"`
	ReloadBurst         int           `toml:"reload_burst"`
	// Patterns also reload on sibling files whose base name matches, e.g.
	// "meta-*.json" next to a multi-target build's metafiles.
	Patterns []string `toml:"patterns"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	MetricsAddr   string `toml:"metrics_addr"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
}

type UI struct {
	// ChunkFilter is the initial chunk list filter: all, initial or lazy.
	ChunkFilter string `toml:"chunk_filter"`
}

const (
	FilterAll     = "all"
	FilterInitial = "initial"
	FilterLazy    = "lazy"
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// EntryOptions converts the analysis section into engine options.
func (c *Config) EntryOptions() (analysis.EntryOptions, error) {
	filter, err := analysis.GlobOutputFilter(c.Analysis.ServerOutputs)
	if err != nil {
		return analysis.EntryOptions{}, err
	}
	return analysis.EntryOptions{
		Filter:     filter,
		Hints:      append([]string(nil), c.Analysis.EntryHints...),
		Extensions: append([]string(nil), c.Analysis.ScriptExtensions...),
	}, nil
}

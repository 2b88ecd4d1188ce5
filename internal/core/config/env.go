package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: RADAR_[SECTION]_[KEY] (e.g., RADAR_DB_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Analysis.Entry, "RADAR_ANALYSIS_ENTRY")

	setEnvDuration(&cfg.Watch.Debounce, "RADAR_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxReloadsPerSecond, "RADAR_WATCH_MAX_RELOADS_PER_SECOND")

	setEnvBool(&cfg.DB.Enabled, "RADAR_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "RADAR_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "RADAR_DB_BUSY_TIMEOUT")

	setEnvBool(&cfg.Observability.Enabled, "RADAR_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.MetricsAddr, "RADAR_OBSERVABILITY_METRICS_ADDR")
	setEnvBool(&cfg.Observability.EnableTracing, "RADAR_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "RADAR_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

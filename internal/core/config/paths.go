package config

import (
	"os"
	"path/filepath"
	"strings"
)

// StateDir is where radar keeps logs and the snapshot database.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "radar")
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "radar")
	}
	return "."
}

// ResolveRelative joins path onto base unless it is already absolute.
func ResolveRelative(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// DBPath resolves the snapshot database location against the state directory.
func (c *Config) DBPath() string {
	return ResolveRelative(StateDir(), c.DB.Path)
}

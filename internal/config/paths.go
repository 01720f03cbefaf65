package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultBaseDir = ".aiosforge"
	databaseFile   = "aiosforge.db"
)

// Paths holds resolved filesystem paths for aiosforge data.
type Paths struct {
	Base     string // ~/.aiosforge
	Config   string // ~/.aiosforge/config.yaml
	Env      string // ~/.aiosforge/.env
	Data     string // ~/.aiosforge/data
	Database string // ~/.aiosforge/data/aiosforge.db
	Exports  string // ~/.aiosforge/exports
}

// ResolvePaths computes all standard paths from the home directory.
// If AIOSFORGE_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("AIOSFORGE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	data := filepath.Join(base, "data")
	return Paths{
		Base:     base,
		Config:   filepath.Join(base, "config.yaml"),
		Env:      filepath.Join(base, ".env"),
		Data:     data,
		Database: filepath.Join(data, databaseFile),
		Exports:  filepath.Join(base, "exports"),
	}, nil
}

// DatabasePath returns the configured store path, or the default one.
func (p Paths) DatabasePath(cfg Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return p.Database
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Exports} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// knownSections are the top-level keys config get/set may touch.
var knownSections = map[string]bool{
	"server":    true,
	"assistant": true,
	"store":     true,
	"logging":   true,
	"generator": true,
}

// ParseConfigPath splits a dot-separated config path into segments.
// Returns an error if any segment is empty or the first one is not a
// known section.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	if !knownSections[parts[0]] {
		return nil, &ConfigError{Message: "unknown config section: " + parts[0]}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			return false
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}

// Package testsupport provides shared helpers for wiring configs, stores,
// and buses in tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"animehub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDirs = []string{filepath.Join(base, "media")}
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMatchThreshold overrides the resolver match threshold.
func WithMatchThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Resolution.MatchThreshold = threshold
	}
}

// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"uplift/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIKeyFile = filepath.Join(base, "keys.txt")
	cfg.API.PollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithValidation toggles source validation on the test config.
func WithValidation(enforce bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Validation.Enforce = enforce
	}
}

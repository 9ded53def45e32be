package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"standwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Identity.Login = "tester"
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithBaseURL points the test config at a backend, usually an httptest server.
func WithBaseURL(baseURL string) ConfigOption {
	return func(c *config.Config) {
		c.Server.BaseURL = baseURL
	}
}

// WithLogin overrides the visitor login on the test config.
func WithLogin(login string) ConfigOption {
	return func(c *config.Config) {
		c.Identity.Login = login
	}
}

// WithNtfyTopic sets the alert delivery endpoint on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(c *config.Config) {
		c.Alert.NtfyTopic = topic
	}
}

// WriteConfigFile serializes cfg next to its state directory and returns the
// file path, for tests that drive the CLI through --config.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode test config: %v", err)
	}
	path := filepath.Join(filepath.Dir(cfg.Paths.StateDir), "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

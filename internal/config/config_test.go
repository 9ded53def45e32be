package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Watch.PollInterval != 5 {
		t.Errorf("poll interval = %d, want 5", cfg.Watch.PollInterval)
	}
	if cfg.Watch.StaffPollInterval != 1 {
		t.Errorf("staff poll interval = %d, want 1", cfg.Watch.StaffPollInterval)
	}
	if cfg.Alert.Threshold != 1 {
		t.Errorf("alert threshold = %d, want 1", cfg.Alert.Threshold)
	}
	if cfg.Alert.FlagTTLMinutes != 10 {
		t.Errorf("flag ttl = %d, want 10", cfg.Alert.FlagTTLMinutes)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[server]
base_url = "https://queue.example.com/"

[identity]
login = "visitor42"

[watch]
poll_interval = 7
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Server.BaseURL != "https://queue.example.com" {
		t.Errorf("base url = %q, trailing slash should be trimmed", cfg.Server.BaseURL)
	}
	if cfg.Identity.Login != "visitor42" {
		t.Errorf("login = %q, want visitor42", cfg.Identity.Login)
	}
	if cfg.Watch.PollInterval != 7 {
		t.Errorf("poll interval = %d, want 7", cfg.Watch.PollInterval)
	}
	if cfg.Watch.StaffPollInterval != 1 {
		t.Errorf("staff poll interval should fall back to default, got %d", cfg.Watch.StaffPollInterval)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file should not be reported as existing")
	}
	if cfg.Server.BaseURL != defaultBaseURL {
		t.Errorf("base url = %q, want default", cfg.Server.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://example.com" }, "http or https"},
		{"bad format", func(c *Config) { c.Logging.Format = "yaml" }, "console or json"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := ExpandPath("~/state")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "state") {
		t.Errorf("ExpandPath = %q, want %q", got, filepath.Join(home, "state"))
	}
}

func TestFlagDBPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.StateDir = "/tmp/standwatch-test"
	if got := cfg.FlagDBPath(); got != "/tmp/standwatch-test/flags.db" {
		t.Errorf("FlagDBPath = %q", got)
	}
	if got := cfg.SessionLockPath(); got != "/tmp/standwatch-test/watch.lock" {
		t.Errorf("SessionLockPath = %q", got)
	}
}

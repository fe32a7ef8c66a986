package config

import (
	"os"
	"path/filepath"
	"testing"

	tlerrors "github.com/termlink/termlink/internal/errors"
)

func TestLoadMissingDefaultGivesDefaults(t *testing.T) {
	// Point HOME at an empty directory so no real config is picked up.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with no config file: %v", err)
	}
	if cfg.Subprotocol != DefaultSubprotocol {
		t.Errorf("subprotocol = %q, want %q", cfg.Subprotocol, DefaultSubprotocol)
	}
	if cfg.PingIntervalMs != DefaultPingIntervalMs {
		t.Errorf("ping interval = %d, want %d", cfg.PingIntervalMs, DefaultPingIntervalMs)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("max retries = %d, want %d", cfg.MaxRetries, DefaultMaxRetries)
	}
	if cfg.RetryDelayMs != DefaultRetryDelayMs {
		t.Errorf("retry delay = %d, want %d", cfg.RetryDelayMs, DefaultRetryDelayMs)
	}
}

func TestLoadExplicitMissingPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !tlerrors.IsCode(err, tlerrors.CodeConfigNotFound) {
		t.Errorf("error = %v, want %s", err, tlerrors.CodeConfigNotFound)
	}
}

func TestLoadParsesFileAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
url = "ws://example:7071/terminal"
max_retries = 9
discover = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.URL != "ws://example:7071/terminal" {
		t.Errorf("url = %q", cfg.URL)
	}
	if cfg.MaxRetries != 9 {
		t.Errorf("max retries = %d, want 9", cfg.MaxRetries)
	}
	if !cfg.Discover {
		t.Errorf("discover not set")
	}
	// Unset fields fall back to defaults.
	if cfg.RetryDelayMs != DefaultRetryDelayMs {
		t.Errorf("retry delay = %d, want default %d", cfg.RetryDelayMs, DefaultRetryDelayMs)
	}
	if cfg.InputRateLimit != DefaultInputRateLimit {
		t.Errorf("input rate limit = %d, want default %d", cfg.InputRateLimit, DefaultInputRateLimit)
	}
}

func TestLoadRejectsBrokenTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("url = [broken"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if !tlerrors.IsCode(err, tlerrors.CodeConfigParseFailed) {
		t.Errorf("error = %v, want %s", err, tlerrors.CodeConfigParseFailed)
	}
}

// Package config provides TOML configuration file loading and parsing for the
// termlink client. The configuration file lives at ~/.termlink/config.toml by
// default, but can be overridden with the --config flag. CLI flags always take
// precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	tlerrors "github.com/termlink/termlink/internal/errors"
)

// Config represents the client configuration file structure.
// Field names use Go camelCase internally but map to snake_case in TOML files
// via struct tags.
type Config struct {
	// URL is the websocket endpoint to connect to, e.g.
	// wss://host:7071/terminal. If empty and discovery is enabled, the
	// endpoint is resolved via mDNS.
	URL string `toml:"url"`

	// Subprotocol is the websocket sub-protocol identifier negotiated
	// when opening the transport.
	// Default: terminal.v1
	Subprotocol string `toml:"subprotocol"`

	// PingIntervalMs is the liveness probe interval in milliseconds.
	// Default: 20000
	PingIntervalMs int `toml:"ping_interval_ms"`

	// StaleMultiplier is the number of probe intervals without inbound
	// traffic after which the connection is treated as stale.
	// Default: 3
	StaleMultiplier int `toml:"stale_multiplier"`

	// MaxRetries is the reconnect budget. Exceeding it is fatal to the
	// session. Default: 5
	MaxRetries int `toml:"max_retries"`

	// RetryDelayMs is the constant delay before each reconnect attempt in
	// milliseconds. There is deliberately no exponential backoff.
	// Default: 3000
	RetryDelayMs int `toml:"retry_delay_ms"`

	// ResizeDebounceMs is the trailing-edge debounce window for resize
	// events in milliseconds. Default: 250
	ResizeDebounceMs int `toml:"resize_debounce_ms"`

	// InputRateLimit is the maximum number of input events forwarded per
	// second. Excess input is dropped, not queued. Default: 200
	InputRateLimit int `toml:"input_rate_limit"`

	// DownloadDir is where received file transfers are written.
	// Default: ~/.termlink/downloads
	DownloadDir string `toml:"download_dir"`

	// Journal is the path to the SQLite session journal.
	// Default: ~/.termlink/termlink.db
	Journal string `toml:"journal"`

	// LogLevel controls logging verbosity: debug, info, warn, error.
	// Default: info
	LogLevel string `toml:"log_level"`

	// Discover enables mDNS endpoint discovery when URL is empty.
	// Default: false
	Discover bool `toml:"discover"`

	// QR displays the session share code as a QR code on connect.
	// Default: false
	QR bool `toml:"qr"`
}

// DefaultConfigPath returns the default config file location: ~/.termlink/config.toml.
// Returns an error only if the user's home directory cannot be determined.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".termlink", "config.toml"), nil
}

// Load reads a TOML config file from the given path and returns a Config
// with defaults applied for any unset field.
//
// Behavior:
//   - If path is empty, attempts to load from the default location.
//     Returns a default Config without error if the default file doesn't exist.
//   - If path is specified, returns an error if the file doesn't exist.
//   - Returns an error if the file exists but cannot be parsed.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		// No explicit path: try default location, but don't error if missing.
		// This allows the client to start without any config file.
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		path = defaultPath
	} else {
		// Explicit path provided: error if file doesn't exist.
		// If the user specifies a config file, it should exist.
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, tlerrors.New(tlerrors.CodeConfigNotFound, fmt.Sprintf("config file not found: %s", path))
		}
	}

	// Parse the TOML file. Any parse error is fatal since the user expects
	// the config to be applied.
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, tlerrors.Wrap(tlerrors.CodeConfigParseFailed, fmt.Sprintf("failed to parse config file %s", path), err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills in default values for any unset field.
func (c *Config) ApplyDefaults() {
	if c.Subprotocol == "" {
		c.Subprotocol = DefaultSubprotocol
	}
	if c.PingIntervalMs <= 0 {
		c.PingIntervalMs = DefaultPingIntervalMs
	}
	if c.StaleMultiplier <= 0 {
		c.StaleMultiplier = DefaultStaleMultiplier
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelayMs <= 0 {
		c.RetryDelayMs = DefaultRetryDelayMs
	}
	if c.ResizeDebounceMs <= 0 {
		c.ResizeDebounceMs = DefaultResizeDebounceMs
	}
	if c.InputRateLimit <= 0 {
		c.InputRateLimit = DefaultInputRateLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DownloadDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DownloadDir = filepath.Join(home, ".termlink", "downloads")
		}
	}
	if c.Journal == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Journal = filepath.Join(home, ".termlink", "termlink.db")
		}
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/justyntemme/filedrap/internal/debug"
)

// EnvPrefix prefixes every environment override, e.g.
// FILEDRAP_BROWSER_SHOW_HIDDEN=true or FILEDRAP_LOGGING_LEVEL=debug.
const EnvPrefix = "FILEDRAP"

// Config represents the application configuration
type Config struct {
	Browser BrowserConfig `json:"browser"`
	Watch   WatchConfig   `json:"watch"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
}

// BrowserConfig holds the initial display settings. Settings changed at
// runtime are persisted in the state database and take precedence.
type BrowserConfig struct {
	ShowHidden    bool   `json:"showHidden" split_words:"true"`
	SortAscending bool   `json:"sortAscending" split_words:"true"`
	Locale        string `json:"locale,omitempty"` // BCP 47; empty uses $LANG
}

type WatchConfig struct {
	Enabled    bool `json:"enabled"`
	DebounceMs int  `json:"debounceMs" split_words:"true"`
}

// Debounce returns the watcher debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	if w.DebounceMs <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(w.DebounceMs) * time.Millisecond
}

type StorageConfig struct {
	DBPath string `json:"dbPath,omitempty" split_words:"true"` // empty uses DefaultDBPath
}

type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
	File        string `json:"file,omitempty"`
}

type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty"` // node_exporter textfile path; empty disables
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a configuration manager for path. An empty path uses
// ConfigPath().
func NewManager(path string) *Manager {
	if path == "" {
		path = ConfigPath()
	}
	return &Manager{
		config: DefaultConfig(),
		path:   path,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			ShowHidden:    false,
			SortAscending: true,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// ConfigPath returns the config file path: ~/.config/filedrap/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "filedrap", "config.json")
}

// DefaultDBPath returns the state database path next to the config file.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "filedrap", "state.db")
}

// Path returns the file the manager reads and writes.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Load reads the configuration from the config file, then applies
// FILEDRAP_* environment overrides.
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseErr = nil

	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := os.ReadFile(m.path)
	switch {
	case os.IsNotExist(err):
		debug.Log(debug.APP, "Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if err := m.saveUnlocked(); err != nil {
			return fmt.Errorf("save default config: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read config: %w", err)
	default:
		cfg := DefaultConfig()
		if err := json.Unmarshal(data, cfg); err != nil {
			// Store error for display, use defaults
			debug.Log(debug.APP, "Config: JSON parse error: %v", err)
			m.parseErr = err
			cfg = DefaultConfig()
		}
		m.config = cfg
	}

	if err := envconfig.Process(EnvPrefix, m.config); err != nil {
		return fmt.Errorf("apply environment overrides: %w", err)
	}
	debug.Log(debug.APP, "Config: loaded from %s", m.path)
	return nil
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// GenerateConfig backs up the existing config at path and writes a fresh
// default one. Returns the backup path if a backup was created, or empty
// string if no existing config
func GenerateConfig(path string) (backupPath string, err error) {
	if path == "" {
		path = ConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+".json")

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}
	return backupPath, nil
}

// Package settings manages persistent user settings for the netcensus CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fallbacks used when a setting is empty.
const (
	DefaultInventory   = "data/devices.csv"
	DefaultOutputDir   = "data"
	DefaultRedisDB     = 0
	DefaultConcurrency = 1
)

// Settings holds persistent user preferences. Passwords are never stored.
type Settings struct {
	// Inventory is the device file used when --inventory is not given
	Inventory string `json:"inventory,omitempty"`

	// OutputDir is where reports are written
	OutputDir string `json:"output_dir,omitempty"`

	// JumpHost and JumpUser preselect a bastion for every run
	JumpHost string `json:"jump_host,omitempty"`
	JumpUser string `json:"jump_user,omitempty"`

	// ConnectTimeout and ReadTimeout are Go durations ("30s")
	ConnectTimeout string `json:"connect_timeout,omitempty"`
	ReadTimeout    string `json:"read_timeout,omitempty"`

	CommandTemplate string `json:"command_template,omitempty"`
	PromptPattern   string `json:"prompt_pattern,omitempty"`

	// RedisAddr enables the shared Redis inventory
	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`

	Concurrency int `json:"concurrency,omitempty"`

	// HistoryPath overrides the run history file
	HistoryPath string `json:"history_path,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "netcensus_settings.json"
	}
	return filepath.Join(home, ".netcensus", "settings.json")
}

// DefaultHistoryPath returns the default run history file, next to the
// settings file.
func DefaultHistoryPath() string {
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "history.log")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetInventory returns the inventory path (with fallback)
func (s *Settings) GetInventory() string {
	if s.Inventory != "" {
		return s.Inventory
	}
	return DefaultInventory
}

// GetOutputDir returns the report directory (with fallback)
func (s *Settings) GetOutputDir() string {
	if s.OutputDir != "" {
		return s.OutputDir
	}
	return DefaultOutputDir
}

// GetHistoryPath returns the history file (with fallback)
func (s *Settings) GetHistoryPath() string {
	if s.HistoryPath != "" {
		return s.HistoryPath
	}
	return DefaultHistoryPath()
}

// GetConcurrency returns the device concurrency, at least 1
func (s *Settings) GetConcurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return DefaultConcurrency
}

// GetConnectTimeout parses ConnectTimeout. Zero means the transport default.
func (s *Settings) GetConnectTimeout() (time.Duration, error) {
	return parseDuration("connect_timeout", s.ConnectTimeout)
}

// GetReadTimeout parses ReadTimeout. Zero means the executor default.
func (s *Settings) GetReadTimeout() (time.Duration, error) {
	return parseDuration("read_timeout", s.ReadTimeout)
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", key, v)
	}
	return d, nil
}

// setters maps setting keys to their assignment, validating the value.
var setters = map[string]func(s *Settings, v string) error{
	"inventory":        func(s *Settings, v string) error { s.Inventory = v; return nil },
	"output_dir":       func(s *Settings, v string) error { s.OutputDir = v; return nil },
	"jump_host":        func(s *Settings, v string) error { s.JumpHost = v; return nil },
	"jump_user":        func(s *Settings, v string) error { s.JumpUser = v; return nil },
	"command_template": func(s *Settings, v string) error { s.CommandTemplate = v; return nil },
	"prompt_pattern":   func(s *Settings, v string) error { s.PromptPattern = v; return nil },
	"redis_addr":       func(s *Settings, v string) error { s.RedisAddr = v; return nil },
	"history_path":     func(s *Settings, v string) error { s.HistoryPath = v; return nil },
	"connect_timeout": func(s *Settings, v string) error {
		if _, err := parseDuration("connect_timeout", v); err != nil {
			return err
		}
		s.ConnectTimeout = v
		return nil
	},
	"read_timeout": func(s *Settings, v string) error {
		if _, err := parseDuration("read_timeout", v); err != nil {
			return err
		}
		s.ReadTimeout = v
		return nil
	},
	"redis_db": func(s *Settings, v string) error {
		n, err := parseInt("redis_db", v, 0)
		s.RedisDB = n
		return err
	},
	"concurrency": func(s *Settings, v string) error {
		n, err := parseInt("concurrency", v, 0)
		s.Concurrency = n
		return err
	},
}

func parseInt(key, v string, min int) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	if n < min {
		return 0, fmt.Errorf("%s: must be at least %d", key, min)
	}
	return n, nil
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to the setting named key. An empty value resets it.
func (s *Settings) Set(key, value string) error {
	set, ok := setters[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(s, strings.TrimSpace(value))
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/tiling"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	MinWorkspaces = 1
	MaxWorkspaces = 32

	minFactor = 0.1
	maxFactor = 0.9
)

// DwindleConfig tunes the binary-split layout.
type DwindleConfig struct {
	SplitRatio     float64 `yaml:"split_ratio" toml:"split_ratio"`
	SmartSplit     bool    `yaml:"smart_split" toml:"smart_split"`
	NoGapsWhenOnly bool    `yaml:"no_gaps_when_only" toml:"no_gaps_when_only"`
}

// MasterConfig tunes the master/stack layout.
type MasterConfig struct {
	MasterFactor float64 `yaml:"master_factor" toml:"master_factor"`
	MasterCount  int     `yaml:"master_count" toml:"master_count"`
}

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warning, error
	Level string `yaml:"level,omitempty" toml:"level,omitempty"`
	// File additionally writes logs to a rotated file when set.
	File string `yaml:"file,omitempty" toml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty" toml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty" toml:"max_files,omitempty"`
}

// includeDirective lets strict decoding accept the include key. The loader
// reads include targets from the YAML node tree.
type includeDirective struct{}

func (*includeDirective) UnmarshalYAML(*yaml.Node) error { return nil }

// Config holds the application configuration.
type Config struct {
	Include                  includeDirective  `yaml:"include,omitempty" toml:"-"`
	GapsIn                   int               `yaml:"gaps_in" toml:"gaps_in"`
	GapsOut                  int               `yaml:"gaps_out" toml:"gaps_out"`
	DefaultLayout            string            `yaml:"default_layout" toml:"default_layout"`
	Dwindle                  DwindleConfig     `yaml:"dwindle" toml:"dwindle"`
	Master                   MasterConfig      `yaml:"master" toml:"master"`
	Workspaces               int               `yaml:"workspaces" toml:"workspaces"`
	Keybinds                 map[string]string `yaml:"keybinds" toml:"keybinds"`
	ReconcileIntervalSeconds int               `yaml:"reconcile_interval_seconds" toml:"reconcile_interval_seconds"`
	Logging                  LoggingConfig     `yaml:"logging,omitempty" toml:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		GapsIn:        5,
		GapsOut:       10,
		DefaultLayout: tiling.LayoutDwindle.String(),
		Dwindle: DwindleConfig{
			SplitRatio: 0.5,
			SmartSplit: true,
		},
		Master: MasterConfig{
			MasterFactor: 0.55,
			MasterCount:  1,
		},
		Workspaces:               10,
		Keybinds:                 defaultKeybinds(),
		ReconcileIntervalSeconds: 10,
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// Super+Alt keeps clear of the bindings most window managers ship with.
func defaultKeybinds() map[string]string {
	binds := map[string]string{
		"Mod4-Mod1-d": "layout dwindle",
		"Mod4-Mod1-m": "layout master",
		"Mod4-Mod1-i": "master-count +1",
		"Mod4-Mod1-u": "master-count -1",
		"Mod4-Mod1-l": "master-factor +0.05",
		"Mod4-Mod1-h": "master-factor -0.05",
		"Mod4-Mod1-r": "retile",
		"Mod4-Mod1-b": "balance",
		"Mod4-Mod1-f": "float",

		"Mod4-Mod1-Shift-f":   "fullscreen",
		"Mod4-Mod1-Left":      "focus left",
		"Mod4-Mod1-Right":     "focus right",
		"Mod4-Mod1-Up":        "focus up",
		"Mod4-Mod1-Down":      "focus down",
		"Mod4-Mod1-Tab":       "focus next",
		"Mod4-Mod1-Shift-Tab": "focus prev",
	}
	for n := 1; n <= 9; n++ {
		binds[fmt.Sprintf("Mod4-Mod1-%d", n)] = fmt.Sprintf("workspace %d", n)
		binds[fmt.Sprintf("Mod4-Mod1-Shift-%d", n)] = fmt.Sprintf("move-to-workspace %d", n)
		binds[fmt.Sprintf("Mod4-Mod1-Control-%d", n)] = fmt.Sprintf("move-to-workspace-follow %d", n)
	}
	return binds
}

// Settings returns the tiling parameters the coordinator copies in.
func (c *Config) Settings() tiling.Settings {
	return tiling.Settings{
		GapsIn:         c.GapsIn,
		GapsOut:        c.GapsOut,
		SplitRatio:     c.Dwindle.SplitRatio,
		SmartSplit:     c.Dwindle.SmartSplit,
		NoGapsWhenOnly: c.Dwindle.NoGapsWhenOnly,
		MasterFactor:   c.Master.MasterFactor,
		MasterCount:    c.Master.MasterCount,
	}
}

// Layout returns the parsed default layout, falling back to dwindle.
func (c *Config) Layout() tiling.LayoutType {
	layout, err := tiling.ParseLayoutType(c.DefaultLayout)
	if err != nil {
		return tiling.LayoutDwindle
	}
	return layout
}

// ReconcileInterval returns how often the daemon rescans the client list.
func (c *Config) ReconcileInterval() time.Duration {
	if c.ReconcileIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// Bindings returns the keybinds that carry an action. An empty action
// unbinds a default key, and default workspace keys past the configured
// workspace count are dropped.
func (c *Config) Bindings() map[string]string {
	defaults := defaultKeybinds()
	out := make(map[string]string, len(c.Keybinds))
	for key, action := range c.Keybinds {
		if strings.TrimSpace(action) == "" {
			continue
		}
		if defaults[key] == action && !c.inWorkspaceRange(action) {
			continue
		}
		out[key] = action
	}
	return out
}

func (c *Config) inWorkspaceRange(action string) bool {
	req, err := ipc.ParseAction(action)
	if err != nil {
		return true
	}
	ws, ok := req.Workspace()
	return !ok || ws <= c.Workspaces
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{Level: "info", MaxSizeMB: 10, MaxFiles: 3}
	}
	cfg := c.Logging
	if strings.HasPrefix(cfg.File, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.File = filepath.Join(home, cfg.File[2:])
		}
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Save writes the configuration to path, as TOML when the extension is
// .toml and YAML otherwise.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original file.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := c.Marshal(FormatForPath(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal encodes the configuration in format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return data, nil
	}
}

func (c *Config) Validate() error {
	if c.GapsIn < 0 {
		return &ValidationError{Path: "gaps_in", Err: fmt.Errorf("gaps_in must be >= 0")}
	}
	if c.GapsOut < 0 {
		return &ValidationError{Path: "gaps_out", Err: fmt.Errorf("gaps_out must be >= 0")}
	}
	if _, err := tiling.ParseLayoutType(c.DefaultLayout); err != nil {
		return &ValidationError{Path: "default_layout", Err: fmt.Errorf("default_layout must be one of: dwindle, master")}
	}
	if !inFactorRange(c.Dwindle.SplitRatio) {
		return &ValidationError{Path: "dwindle.split_ratio", Err: fmt.Errorf("split_ratio must be between %.1f and %.1f", minFactor, maxFactor)}
	}
	if !inFactorRange(c.Master.MasterFactor) {
		return &ValidationError{Path: "master.master_factor", Err: fmt.Errorf("master_factor must be between %.1f and %.1f", minFactor, maxFactor)}
	}
	if c.Master.MasterCount < 1 {
		return &ValidationError{Path: "master.master_count", Err: fmt.Errorf("master_count must be >= 1")}
	}
	if c.Workspaces < MinWorkspaces || c.Workspaces > MaxWorkspaces {
		return &ValidationError{Path: "workspaces", Err: fmt.Errorf("workspaces must be between %d and %d", MinWorkspaces, MaxWorkspaces)}
	}
	if c.ReconcileIntervalSeconds < 0 {
		return &ValidationError{Path: "reconcile_interval_seconds", Err: fmt.Errorf("reconcile_interval_seconds must be >= 0")}
	}
	for key, action := range c.Bindings() {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{Path: "keybinds", Err: fmt.Errorf("keybinds contains an empty key")}
		}
		req, err := ipc.ParseAction(action)
		if err != nil {
			return &ValidationError{Path: "keybinds." + key, Err: err}
		}
		if ws, ok := req.Workspace(); ok && ws > c.Workspaces {
			return &ValidationError{Path: "keybinds." + key, Err: fmt.Errorf("workspace %d exceeds workspaces (%d)", ws, c.Workspaces)}
		}
	}
	if !isValidLogLevel(c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warning, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

func inFactorRange(v float64) bool {
	return v >= minFactor && v <= maxFactor
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/tiling"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Layout() != tiling.LayoutDwindle {
		t.Fatalf("expected dwindle default, got %v", cfg.Layout())
	}
	if got := cfg.Settings(); got != tiling.DefaultSettings() {
		t.Fatalf("expected default settings %+v, got %+v", tiling.DefaultSettings(), got)
	}
	if cfg.ReconcileInterval() != 10*time.Second {
		t.Fatalf("expected 10s reconcile interval, got %v", cfg.ReconcileInterval())
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Exists {
		t.Fatalf("expected Exists to be false")
	}
	if res.Config.GapsOut != 10 {
		t.Fatalf("expected default gaps_out 10, got %d", res.Config.GapsOut)
	}
}

func TestLoadFromPathEmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.DefaultLayout != "dwindle" {
		t.Fatalf("expected default_layout dwindle, got %q", res.Config.DefaultLayout)
	}
}

func TestLoadFromPathYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"gaps_in: 2",
		"gaps_out: 4",
		"default_layout: master",
		"dwindle:",
		"  no_gaps_when_only: true",
		"master:",
		"  master_factor: 0.6",
		"  master_count: 2",
		"keybinds:",
		"  Mod4-Return: retile",
		"  Mod4-Mod1-b: \"\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config

	want := tiling.Settings{
		GapsIn:         2,
		GapsOut:        4,
		SplitRatio:     0.5,
		SmartSplit:     true,
		NoGapsWhenOnly: true,
		MasterFactor:   0.6,
		MasterCount:    2,
	}
	if got := cfg.Settings(); got != want {
		t.Fatalf("expected settings %+v, got %+v", want, got)
	}
	if cfg.Layout() != tiling.LayoutMaster {
		t.Fatalf("expected master layout, got %v", cfg.Layout())
	}

	binds := cfg.Bindings()
	if binds["Mod4-Return"] != "retile" {
		t.Fatalf("expected Mod4-Return bound to retile, got %q", binds["Mod4-Return"])
	}
	if _, ok := binds["Mod4-Mod1-b"]; ok {
		t.Fatalf("expected empty action to unbind Mod4-Mod1-b")
	}
	if binds["Mod4-Mod1-d"] != "layout dwindle" {
		t.Fatalf("expected default bindings to remain, got %q", binds["Mod4-Mod1-d"])
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, strings.Join([]string{
		"gaps_in = 3",
		"workspaces = 4",
		"",
		"[dwindle]",
		"split_ratio = 0.4",
		"",
		"[keybinds]",
		"Mod4-Return = \"balance\"",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.GapsIn != 3 || cfg.GapsOut != 10 {
		t.Fatalf("expected gaps 3/10, got %d/%d", cfg.GapsIn, cfg.GapsOut)
	}
	if cfg.Dwindle.SplitRatio != 0.4 {
		t.Fatalf("expected split ratio 0.4, got %v", cfg.Dwindle.SplitRatio)
	}
	if cfg.Keybinds["Mod4-Return"] != "balance" {
		t.Fatalf("expected Mod4-Return bound to balance, got %q", cfg.Keybinds["Mod4-Return"])
	}
	if src := res.Sources["gaps_in"]; src.Kind != SourceFile {
		t.Fatalf("expected gaps_in to come from file, got %+v", src)
	}
}

func TestBindingsFollowWorkspaceCount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = 3
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate with 3 workspaces, got %v", err)
	}

	binds := cfg.Bindings()
	if binds["Mod4-Mod1-3"] != "workspace 3" || binds["Mod4-Mod1-Shift-3"] != "move-to-workspace 3" {
		t.Fatalf("expected workspace 3 keys kept, got %q and %q", binds["Mod4-Mod1-3"], binds["Mod4-Mod1-Shift-3"])
	}
	for _, key := range []string{"Mod4-Mod1-4", "Mod4-Mod1-Shift-9", "Mod4-Mod1-Control-5"} {
		if action, ok := binds[key]; ok {
			t.Fatalf("expected %s dropped, bound to %q", key, action)
		}
	}

	// A key the user points elsewhere is theirs to keep.
	cfg.Keybinds["Mod4-Mod1-4"] = "retile"
	if cfg.Bindings()["Mod4-Mod1-4"] != "retile" {
		t.Fatalf("expected user binding on Mod4-Mod1-4")
	}
}

func TestLoadFromPathTOMLRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "gap_size = 3\n")

	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "unknown keys") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadFromPathYAMLRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "gap_size: 3\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{name: "negative inner gap", mutate: func(c *Config) { c.GapsIn = -1 }, path: "gaps_in"},
		{name: "negative outer gap", mutate: func(c *Config) { c.GapsOut = -1 }, path: "gaps_out"},
		{name: "unknown layout", mutate: func(c *Config) { c.DefaultLayout = "spiral" }, path: "default_layout"},
		{name: "split ratio too small", mutate: func(c *Config) { c.Dwindle.SplitRatio = 0.05 }, path: "dwindle.split_ratio"},
		{name: "master factor too large", mutate: func(c *Config) { c.Master.MasterFactor = 0.95 }, path: "master.master_factor"},
		{name: "zero master count", mutate: func(c *Config) { c.Master.MasterCount = 0 }, path: "master.master_count"},
		{name: "no workspaces", mutate: func(c *Config) { c.Workspaces = 0 }, path: "workspaces"},
		{name: "too many workspaces", mutate: func(c *Config) { c.Workspaces = 33 }, path: "workspaces"},
		{name: "bad keybind action", mutate: func(c *Config) { c.Keybinds["Mod4-x"] = "explode" }, path: "keybinds.Mod4-x"},
		{name: "keybind past last workspace", mutate: func(c *Config) { c.Workspaces = 4; c.Keybinds["Mod4-x"] = "workspace 6" }, path: "keybinds.Mod4-x"},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, path: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestValidationErrorCarriesSourceLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "gaps_in: 1\nmaster:\n  master_count: 0\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Source.Line != 3 {
		t.Fatalf("expected error on line 3, got %d (%v)", verr.Source.Line, err)
	}
	if !strings.Contains(err.Error(), "master.master_count") {
		t.Fatalf("expected path in message, got %q", err.Error())
	}
}

func TestIncludesMergeBeforeIncludingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf.d", "10-gaps.yaml"), "gaps_in: 1\ngaps_out: 1\n")
	writeFile(t, filepath.Join(dir, "conf.d", "20-master.yaml"), "master:\n  master_count: 3\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: conf.d\ngaps_out: 8\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.GapsIn != 1 || cfg.GapsOut != 8 || cfg.Master.MasterCount != 3 {
		t.Fatalf("unexpected merge result: gaps %d/%d master_count %d", cfg.GapsIn, cfg.GapsOut, cfg.Master.MasterCount)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}

	_, src, err := Explain(res, "gaps_in")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.HasSuffix(src.File, "10-gaps.yaml") {
		t.Fatalf("expected gaps_in from 10-gaps.yaml, got %+v", src)
	}
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	if _, err := LoadFromPath(filepath.Join(dir, "a.yaml")); err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	res := &LoadResult{Config: DefaultConfig(), Sources: map[string]Source{}}

	value, src, err := Explain(res, "master.master_factor")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != 0.55 {
		t.Fatalf("expected 0.55, got %v", value)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %+v", src)
	}

	if _, _, err := Explain(res, "master.width"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.GapsIn = 7
			cfg.DefaultLayout = "master"
			cfg.Keybinds["Mod4-Return"] = "retile"
			if err := cfg.Save(path); err != nil {
				t.Fatalf("save: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if loaded.GapsIn != 7 || loaded.Layout() != tiling.LayoutMaster {
				t.Fatalf("unexpected round trip: gaps_in %d layout %v", loaded.GapsIn, loaded.Layout())
			}
			if loaded.Keybinds["Mod4-Return"] != "retile" {
				t.Fatalf("expected keybind to survive, got %q", loaded.Keybinds["Mod4-Return"])
			}
		})
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workspaces = 0
	if err := cfg.Save(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDefaultConfigPathPrefersYAML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "tilewm")

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != filepath.Join(dir, "config.yaml") {
		t.Fatalf("expected config.yaml when nothing exists, got %q", path)
	}

	writeFile(t, filepath.Join(dir, "config.toml"), "gaps_in = 1\n")
	if path, _ := DefaultConfigPath(); path != filepath.Join(dir, "config.toml") {
		t.Fatalf("expected config.toml fallback, got %q", path)
	}

	writeFile(t, filepath.Join(dir, "config.yaml"), "gaps_in: 1\n")
	if path, _ := DefaultConfigPath(); path != filepath.Join(dir, "config.yaml") {
		t.Fatalf("expected config.yaml to win, got %q", path)
	}
}

func TestGetLoggingConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging = LoggingConfig{}

	got := cfg.GetLoggingConfig()
	if got.Level != "info" || got.MaxSizeMB != 10 || got.MaxFiles != 3 {
		t.Fatalf("unexpected logging defaults %+v", got)
	}
}

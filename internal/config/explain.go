package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given dotted path and where it
// came from.
//
// Supported paths:
//
//	gaps_in
//	gaps_out
//	default_layout
//	dwindle.split_ratio
//	dwindle.smart_split
//	dwindle.no_gaps_when_only
//	master.master_factor
//	master.master_count
//	workspaces
//	reconcile_interval_seconds
//	keybinds.<key>
//	logging.level
//	logging.file
//	logging.max_size_mb
//	logging.max_files
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	section, key, nested := strings.Cut(path, ".")
	if !nested {
		switch section {
		case "gaps_in":
			return cfg.GapsIn, nil
		case "gaps_out":
			return cfg.GapsOut, nil
		case "default_layout":
			return cfg.DefaultLayout, nil
		case "workspaces":
			return cfg.Workspaces, nil
		case "reconcile_interval_seconds":
			return cfg.ReconcileIntervalSeconds, nil
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	switch section {
	case "dwindle":
		switch key {
		case "split_ratio":
			return cfg.Dwindle.SplitRatio, nil
		case "smart_split":
			return cfg.Dwindle.SmartSplit, nil
		case "no_gaps_when_only":
			return cfg.Dwindle.NoGapsWhenOnly, nil
		}
	case "master":
		switch key {
		case "master_factor":
			return cfg.Master.MasterFactor, nil
		case "master_count":
			return cfg.Master.MasterCount, nil
		}
	case "keybinds":
		if action, ok := cfg.Keybinds[key]; ok {
			return action, nil
		}
	case "logging":
		switch key {
		case "level":
			return cfg.Logging.Level, nil
		case "file":
			return cfg.Logging.File, nil
		case "max_size_mb":
			return cfg.Logging.MaxSizeMB, nil
		case "max_files":
			return cfg.Logging.MaxFiles, nil
		}
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

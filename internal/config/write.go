package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// header is prepended to files written by WriteDefault.
const header = `# patchctl configuration
# Every key can be overridden with PATCHCTL_<SECTION>_<KEY>, e.g.
# PATCHCTL_REFRESH_INTERVAL=10s or PATCHCTL_DISPATCH_WINDOW=5.
`

// fileConfig mirrors Config with durations as strings so the written YAML
// reads "30s" instead of nanosecond integers.
type fileConfig struct {
	Version       int      `yaml:"version"`
	Subscriptions []string `yaml:"subscriptions"`
	Refresh       struct {
		Interval           string `yaml:"interval"`
		QueryTimeout       string `yaml:"query_timeout"`
		MaxParallelQueries int    `yaml:"max_parallel_queries"`
	} `yaml:"refresh"`
	History struct {
		Window  string `yaml:"window"`
		Fetch   int    `yaml:"fetch"`
		Display int    `yaml:"display"`
	} `yaml:"history"`
	Dispatch struct {
		Window  int    `yaml:"window"`
		Settle  string `yaml:"settle"`
		Stagger string `yaml:"stagger"`
		Grace   string `yaml:"grace"`
	} `yaml:"dispatch"`
	Install    InstallConfig    `yaml:"install"`
	Unassessed UnassessedConfig `yaml:"unassessed"`
	Export     ExportConfig     `yaml:"export"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Marshal renders cfg as YAML with human-readable durations.
func Marshal(cfg *Config) ([]byte, error) {
	var fc fileConfig
	fc.Version = cfg.Version
	fc.Subscriptions = cfg.Subscriptions
	fc.Refresh.Interval = cfg.Refresh.Interval.String()
	fc.Refresh.QueryTimeout = cfg.Refresh.QueryTimeout.String()
	fc.Refresh.MaxParallelQueries = cfg.Refresh.MaxParallelQueries
	fc.History.Window = cfg.History.Window.String()
	fc.History.Fetch = cfg.History.Fetch
	fc.History.Display = cfg.History.Display
	fc.Dispatch.Window = cfg.Dispatch.Window
	fc.Dispatch.Settle = cfg.Dispatch.Settle.String()
	fc.Dispatch.Stagger = cfg.Dispatch.Stagger.String()
	fc.Dispatch.Grace = cfg.Dispatch.Grace.String()
	fc.Install = cfg.Install
	fc.Unassessed = cfg.Unassessed
	fc.Export = cfg.Export
	fc.Log = cfg.Log
	fc.Metrics = cfg.Metrics

	body, err := yaml.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append([]byte(header), body...), nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := Marshal(DefaultConfig())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

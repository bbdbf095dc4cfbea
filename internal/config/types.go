package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .patchctl.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Subscriptions narrows the query scope to these subscription IDs.
	// Empty means every enabled subscription the signed-in account can see.
	Subscriptions []string `yaml:"subscriptions" mapstructure:"subscriptions"`

	Refresh    RefreshConfig    `yaml:"refresh" mapstructure:"refresh"`
	History    HistoryConfig    `yaml:"history" mapstructure:"history"`
	Dispatch   DispatchConfig   `yaml:"dispatch" mapstructure:"dispatch"`
	Install    InstallConfig    `yaml:"install" mapstructure:"install"`
	Unassessed UnassessedConfig `yaml:"unassessed" mapstructure:"unassessed"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
}

// RefreshConfig controls the live dashboard cycle.
type RefreshConfig struct {
	// Interval between automatic refreshes.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// QueryTimeout bounds each classification query so one stalled backend
	// call degrades to an empty set instead of blocking the cycle.
	QueryTimeout time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`

	// MaxParallelQueries limits concurrent az graph processes per cycle.
	MaxParallelQueries int `yaml:"max_parallel_queries" mapstructure:"max_parallel_queries"`
}

// HistoryConfig controls the installation event stream.
type HistoryConfig struct {
	Window  time.Duration `yaml:"window" mapstructure:"window"`
	Fetch   int           `yaml:"fetch" mapstructure:"fetch"`
	Display int           `yaml:"display" mapstructure:"display"`
}

// DispatchConfig controls bulk command fan-out.
type DispatchConfig struct {
	// Window is the maximum number of in-flight command submissions.
	Window int `yaml:"window" mapstructure:"window"`

	// Settle is the wait between the restart and install phases.
	Settle time.Duration `yaml:"settle" mapstructure:"settle"`

	// Stagger spaces out serial install submissions.
	Stagger time.Duration `yaml:"stagger" mapstructure:"stagger"`

	// Grace is how long in-flight submissions get to stop after an
	// emergency exit before they are killed.
	Grace time.Duration `yaml:"grace" mapstructure:"grace"`
}

// InstallConfig holds the parameters passed to install-patches.
type InstallConfig struct {
	Classifications []string `yaml:"classifications" mapstructure:"classifications"`
	MaxDuration     string   `yaml:"max_duration" mapstructure:"max_duration"`
	RebootSetting   string   `yaml:"reboot_setting" mapstructure:"reboot_setting"`
	OSFamily        string   `yaml:"os_family" mapstructure:"os_family"`
}

// UnassessedConfig scopes the "no recent assessment" query.
type UnassessedConfig struct {
	// OSType matches properties.storageProfile.osDisk.osType (Windows or Linux).
	OSType string `yaml:"os_type" mapstructure:"os_type"`
}

// ExportConfig controls cohort exports.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig controls the log file written while the dashboard owns the terminal.
type LogConfig struct {
	File  string `yaml:"file" mapstructure:"file"`
	Level string `yaml:"level" mapstructure:"level"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Listen is a host:port for /metrics; empty disables the listener.
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:       CurrentConfigVersion,
		Subscriptions: []string{},
		Refresh: RefreshConfig{
			Interval:           30 * time.Second,
			QueryTimeout:       45 * time.Second,
			MaxParallelQueries: 8,
		},
		History: HistoryConfig{
			Window:  20 * time.Minute,
			Fetch:   30,
			Display: 20,
		},
		Dispatch: DispatchConfig{
			Window:  10,
			Settle:  60 * time.Second,
			Stagger: 2 * time.Second,
			Grace:   5 * time.Second,
		},
		Install: InstallConfig{
			Classifications: []string{"Critical", "Security", "UpdateRollUp", "Definition", "Updates"},
			MaxDuration:     "PT2H",
			RebootSetting:   "IfRequired",
			OSFamily:        "windows",
		},
		Unassessed: UnassessedConfig{
			OSType: "Windows",
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Log: LogConfig{
			File:  "~/.cache/patchctl/patchctl.log",
			Level: "info",
		},
	}
}

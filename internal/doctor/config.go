package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rileyhilliard/patchctl/internal/config"
)

// ConfigFileCheck reports which config file is in use. A missing file is a
// warning: patchctl runs on defaults plus PATCHCTL_* overrides.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	InitPath   string // Where Fix writes a default config
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run(_ context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %v", err),
			Suggestion: "Check the --config path or run 'patchctl config init'",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'patchctl config init' to create " + config.ConfigFileName,
			Fixable:    c.InitPath != "",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// Fix writes a default config to InitPath. It never overwrites.
func (c *ConfigFileCheck) Fix() error {
	if c.InitPath == "" {
		return nil
	}
	return config.WriteDefault(c.InitPath, false)
}

// ConfigSchemaCheck loads the effective config and validates it.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run(_ context.Context) CheckResult {
	cfg, path, err := config.LoadOrDefault(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Failed to load config: %v", err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("Schema error: %v", err),
			Suggestion: "Fix the configuration errors in " + describePath(path),
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Schema valid",
	}
}

func (c *ConfigSchemaCheck) Fix() error {
	return nil // Schema issues require manual intervention
}

func describePath(path string) string {
	if path == "" {
		return "your PATCHCTL_* environment"
	}
	return filepath.Base(path)
}

// NewConfigChecks returns the config checks. initPath is where --fix
// creates a default config.
func NewConfigChecks(configPath, initPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath, InitPath: initPath},
		&ConfigSchemaCheck{ConfigPath: configPath},
	}
}

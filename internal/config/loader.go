package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".patchctl.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/patchctl"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix is the prefix for environment overrides (PATCHCTL_REFRESH_INTERVAL=10s).
	EnvPrefix = "PATCHCTL"
)

// Load reads config from the specified path. Environment variables with
// the PATCHCTL_ prefix override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'patchctl config init' to create one, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .patchctl.yaml in current directory
// 3. ~/.config/patchctl/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads .env (if present), then the config found via Find,
// or defaults plus environment overrides when no file exists.
func LoadOrDefault(explicit string) (*Config, string, error) {
	loadDotEnv()

	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// loadDotEnv loads ./.env without overriding variables already set.
// A missing file is not an error.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	_ = godotenv.Load(".env")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	cfg.Export.Dir = ExpandTilde(cfg.Export.Dir)
	cfg.Log.File = ExpandTilde(cfg.Log.File)

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal even when the file does not mention it.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("version", d.Version)
	v.SetDefault("subscriptions", d.Subscriptions)
	v.SetDefault("refresh.interval", d.Refresh.Interval)
	v.SetDefault("refresh.query_timeout", d.Refresh.QueryTimeout)
	v.SetDefault("refresh.max_parallel_queries", d.Refresh.MaxParallelQueries)
	v.SetDefault("history.window", d.History.Window)
	v.SetDefault("history.fetch", d.History.Fetch)
	v.SetDefault("history.display", d.History.Display)
	v.SetDefault("dispatch.window", d.Dispatch.Window)
	v.SetDefault("dispatch.settle", d.Dispatch.Settle)
	v.SetDefault("dispatch.stagger", d.Dispatch.Stagger)
	v.SetDefault("dispatch.grace", d.Dispatch.Grace)
	v.SetDefault("install.classifications", d.Install.Classifications)
	v.SetDefault("install.max_duration", d.Install.MaxDuration)
	v.SetDefault("install.reboot_setting", d.Install.RebootSetting)
	v.SetDefault("install.os_family", d.Install.OSFamily)
	v.SetDefault("unassessed.os_type", d.Unassessed.OSType)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
}

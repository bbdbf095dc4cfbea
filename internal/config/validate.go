package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rileyhilliard/patchctl/internal/errors"
)

// MinRefreshInterval keeps the dashboard from hammering Resource Graph,
// which throttles per-tenant.
const MinRefreshInterval = 5 * time.Second

var (
	validRebootSettings = []string{"IfRequired", "Never", "Always"}
	validOSFamilies     = []string{"windows", "linux"}
	validOSTypes        = []string{"Windows", "Linux"}
	validLogLevels      = []string{"debug", "info", "warn", "error"}

	// isoDuration matches the subset of ISO-8601 durations install-patches accepts (PT2H, PT90M, PT1H30M).
	isoDuration = regexp.MustCompile(`^PT(\d+H)?(\d+M)?$`)

	subscriptionID = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but patchctl only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade patchctl or lower the version field.")
	}

	for _, sub := range cfg.Subscriptions {
		if !subscriptionID.MatchString(sub) {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("'%s' doesn't look like a subscription ID", sub),
				"Subscriptions must be GUIDs, e.g. 00000000-0000-0000-0000-000000000000")
		}
	}

	if err := validateRefresh(cfg.Refresh); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	if err := validateDispatch(cfg.Dispatch); err != nil {
		return err
	}
	if err := validateInstall(cfg.Install); err != nil {
		return err
	}

	if !contains(validOSTypes, cfg.Unassessed.OSType) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("unassessed.os_type '%s' isn't valid", cfg.Unassessed.OSType),
			"Use one of: "+strings.Join(validOSTypes, ", "))
	}

	if cfg.Log.Level != "" && !contains(validLogLevels, cfg.Log.Level) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("log.level '%s' isn't valid", cfg.Log.Level),
			"Use one of: "+strings.Join(validLogLevels, ", "))
	}

	return nil
}

func validateRefresh(r RefreshConfig) error {
	if r.Interval < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh.interval %s is too short", r.Interval),
			fmt.Sprintf("Minimum interval is %s to stay under Resource Graph throttling", MinRefreshInterval))
	}
	if r.QueryTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"refresh.query_timeout must be positive",
			"Try something like 30s or 1m.")
	}
	if r.MaxParallelQueries < 1 {
		return errors.New(errors.ErrConfig,
			"refresh.max_parallel_queries must be at least 1",
			"The default is 8.")
	}
	return nil
}

func validateHistory(h HistoryConfig) error {
	if h.Window <= 0 {
		return errors.New(errors.ErrConfig,
			"history.window must be positive",
			"The default is 20m.")
	}
	if h.Fetch < 1 || h.Display < 1 {
		return errors.New(errors.ErrConfig,
			"history.fetch and history.display must be at least 1",
			"The defaults are fetch: 30, display: 20.")
	}
	if h.Display > h.Fetch {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history.display (%d) can't exceed history.fetch (%d)", h.Display, h.Fetch),
			"Raise fetch or lower display.")
	}
	return nil
}

func validateDispatch(d DispatchConfig) error {
	if d.Window < 1 {
		return errors.New(errors.ErrConfig,
			"dispatch.window must be at least 1",
			"The default is 10 concurrent submissions.")
	}
	if d.Settle < 0 || d.Stagger < 0 || d.Grace < 0 {
		return errors.New(errors.ErrConfig,
			"dispatch durations can't be negative",
			"Check dispatch.settle, dispatch.stagger and dispatch.grace.")
	}
	return nil
}

func validateInstall(in InstallConfig) error {
	if len(in.Classifications) == 0 {
		return errors.New(errors.ErrConfig,
			"install.classifications is empty",
			"List at least one classification, e.g. [Critical, Security]")
	}
	if !isoDuration.MatchString(in.MaxDuration) || in.MaxDuration == "PT" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("install.max_duration '%s' isn't an ISO-8601 duration", in.MaxDuration),
			"Use a value like PT2H or PT90M.")
	}
	if !contains(validRebootSettings, in.RebootSetting) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("install.reboot_setting '%s' isn't valid", in.RebootSetting),
			"Use one of: "+strings.Join(validRebootSettings, ", "))
	}
	if !contains(validOSFamilies, in.OSFamily) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("install.os_family '%s' isn't valid", in.OSFamily),
			"Use one of: "+strings.Join(validOSFamilies, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantMsg: "from the future",
		},
		{
			name:    "bad subscription",
			mutate:  func(c *Config) { c.Subscriptions = []string{"prod-sub"} },
			wantMsg: "subscription ID",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Refresh.Interval = time.Second },
			wantMsg: "too short",
		},
		{
			name:    "zero query timeout",
			mutate:  func(c *Config) { c.Refresh.QueryTimeout = 0 },
			wantMsg: "query_timeout",
		},
		{
			name:    "display above fetch",
			mutate:  func(c *Config) { c.History.Display = 40 },
			wantMsg: "can't exceed",
		},
		{
			name:    "zero window",
			mutate:  func(c *Config) { c.Dispatch.Window = 0 },
			wantMsg: "dispatch.window",
		},
		{
			name:    "negative settle",
			mutate:  func(c *Config) { c.Dispatch.Settle = -time.Second },
			wantMsg: "negative",
		},
		{
			name:    "no classifications",
			mutate:  func(c *Config) { c.Install.Classifications = nil },
			wantMsg: "classifications",
		},
		{
			name:    "bad max duration",
			mutate:  func(c *Config) { c.Install.MaxDuration = "2h" },
			wantMsg: "ISO-8601",
		},
		{
			name:    "bad reboot setting",
			mutate:  func(c *Config) { c.Install.RebootSetting = "Sometimes" },
			wantMsg: "reboot_setting",
		},
		{
			name:    "bad os family",
			mutate:  func(c *Config) { c.Install.OSFamily = "darwin" },
			wantMsg: "os_family",
		},
		{
			name:    "bad unassessed os type",
			mutate:  func(c *Config) { c.Unassessed.OSType = "windows" },
			wantMsg: "os_type",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantMsg: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if assert.Error(t, err) {
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_AcceptsGUIDSubscriptionsAndMinutes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Subscriptions = []string{"0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"}
	cfg.Install.MaxDuration = "PT1H30M"
	cfg.Install.OSFamily = "linux"
	cfg.Unassessed.OSType = "Linux"
	assert.NoError(t, Validate(cfg))
}

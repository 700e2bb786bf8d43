// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "tracescore", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.NoSandbox)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, DefaultPageURL, cfg.Page.URL)
	assert.Equal(t, "#stdout", cfg.Page.Selectors.Status)
	assert.Equal(t, "/app/trace.nbt", cfg.Inputs.Trace)

	// The structured preset is resolved by default.
	assert.Equal(t, PresetStructured, cfg.Poll.Preset)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 11, cfg.Poll.MaxAttempts)
	assert.False(t, cfg.Poll.Emit())
	assert.Equal(t, "structured", cfg.Poll.ResultMode)
}

// -- Preset Tests --

func TestPollConfig_Resolve(t *testing.T) {
	t.Run("raw preset", func(t *testing.T) {
		p, err := PollConfig{Preset: PresetRaw}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, 3*time.Second, p.Interval)
		assert.Equal(t, 10, p.MaxAttempts)
		assert.True(t, p.Emit())
		assert.Equal(t, "raw", p.ResultMode)
	})

	t.Run("explicit fields override the preset", func(t *testing.T) {
		off := false
		p, err := PollConfig{
			Preset:           PresetRaw,
			Interval:         500 * time.Millisecond,
			MaxAttempts:      3,
			EmitIntermediate: &off,
			ResultMode:       "structured",
		}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, p.Interval)
		assert.Equal(t, 3, p.MaxAttempts)
		assert.False(t, p.Emit())
		assert.Equal(t, "structured", p.ResultMode)
		assert.Equal(t, PresetRaw, p.Preset)
	})

	t.Run("empty preset falls back to structured", func(t *testing.T) {
		p, err := PollConfig{}.Resolve()
		require.NoError(t, err)
		assert.Equal(t, PresetStructured, p.Preset)
	})

	t.Run("unknown preset", func(t *testing.T) {
		_, err := PollConfig{Preset: "verbose"}.Resolve()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown poll preset")
	})
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())

		noURL := *cfg
		noURL.Page.URL = ""
		err := noURL.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "page.url is a required configuration field")

		noStatus := *cfg
		noStatus.Page.Selectors.Status = ""
		err = noStatus.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status must not be empty")
	})

	t.Run("Poll Validation", func(t *testing.T) {
		valid, err := PollPreset(PresetStructured)
		require.NoError(t, err)
		assert.NoError(t, valid.Validate())

		zeroAttempts := valid
		zeroAttempts.MaxAttempts = 0
		assert.ErrorContains(t, zeroAttempts.Validate(), "max_attempts must be at least 1")

		badInterval := valid
		badInterval.Interval = -time.Second
		assert.ErrorContains(t, badInterval.Validate(), "interval must be a positive duration")

		badMode := valid
		badMode.ResultMode = "xml"
		assert.ErrorContains(t, badMode.Validate(), "result_mode")
	})
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml overrides defaults", func(t *testing.T) {
		yamlConfig := []byte(`
logger:
  level: debug
browser:
  headless: false
inputs:
  trace: ~/traces/LA001.nbt
poll:
  preset: raw
  max_attempts: 4
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger.Level)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, "~/traces/LA001.nbt", cfg.Inputs.Trace)
		assert.Equal(t, "/app/source.mdl", cfg.Inputs.Source)
		assert.Equal(t, PresetRaw, cfg.Poll.Preset)
		assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
		assert.Equal(t, 4, cfg.Poll.MaxAttempts)
		assert.True(t, cfg.Poll.Emit())
	})

	t.Run("invalid preset is rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("poll.preset", "chatty")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("duration strings are decoded", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("poll.interval", "250ms")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
	})
}

func TestBindEnv(t *testing.T) {
	t.Run("keys without defaults are overridable", func(t *testing.T) {
		t.Setenv("TRACESCORE_POLL_MAX_ATTEMPTS", "3")
		t.Setenv("TRACESCORE_POLL_INTERVAL", "250ms")
		t.Setenv("TRACESCORE_POLL_EMIT_INTERMEDIATE", "false")
		t.Setenv("TRACESCORE_POLL_PRESET", "raw")
		t.Setenv("TRACESCORE_BROWSER_EXEC_PATH", "/opt/chrome/chrome")

		v := viper.New()
		SetDefaults(v)
		require.NoError(t, BindEnv(v))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, PresetRaw, cfg.Poll.Preset)
		assert.Equal(t, 3, cfg.Poll.MaxAttempts)
		assert.Equal(t, 250*time.Millisecond, cfg.Poll.Interval)
		assert.False(t, cfg.Poll.Emit(), "env overrides the preset's emit setting")
		assert.Equal(t, "raw", cfg.Poll.ResultMode)
		assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.ExecPath)
	})

	t.Run("unset env leaves the preset in charge", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		require.NoError(t, BindEnv(v))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 11, cfg.Poll.MaxAttempts)
		assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
		assert.False(t, cfg.Poll.Emit())
		assert.Empty(t, cfg.Browser.ExecPath)
	})
}

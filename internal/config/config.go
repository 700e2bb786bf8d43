// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Poll presets. Each reproduces one of the two historical scoring scripts.
const (
	// PresetStructured parses the terminal line into commands/energy.
	PresetStructured = "structured"
	// PresetRaw streams every observed status line and passes the final one through.
	PresetRaw = "raw"
)

// DefaultPageURL is the official trace execution page (no visualizer).
const DefaultPageURL = "https://icfpcontest2018.github.io/full/exec-trace-novis.html"

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Page    PageConfig    `mapstructure:"page" yaml:"page"`
	Inputs  InputsConfig  `mapstructure:"inputs" yaml:"inputs"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser process.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// NoSandbox is needed when running as root inside a container.
	NoSandbox bool `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	// ExecPath overrides Chrome discovery. Empty means let chromedp find it.
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
	LaunchTimeout     time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	CloseTimeout      time.Duration `mapstructure:"close_timeout" yaml:"close_timeout"`
}

// PageConfig describes the remote page contract.
type PageConfig struct {
	URL       string          `mapstructure:"url" yaml:"url"`
	Selectors SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
}

// SelectorsConfig holds the CSS selectors of the page controls.
type SelectorsConfig struct {
	SourceEmpty string `mapstructure:"source_empty" yaml:"source_empty"`
	TargetEmpty string `mapstructure:"target_empty" yaml:"target_empty"`
	SourceFile  string `mapstructure:"source_file" yaml:"source_file"`
	TargetFile  string `mapstructure:"target_file" yaml:"target_file"`
	TraceFile   string `mapstructure:"trace_file" yaml:"trace_file"`
	Execute     string `mapstructure:"execute" yaml:"execute"`
	Status      string `mapstructure:"status" yaml:"status"`
}

// InputsConfig holds the local model and trace paths. These are deliberately not
// exposed as command line flags.
type InputsConfig struct {
	Source string `mapstructure:"source" yaml:"source"`
	Target string `mapstructure:"target" yaml:"target"`
	Trace  string `mapstructure:"trace" yaml:"trace"`
}

// PollConfig configures the completion poller. Zero values (and a nil
// EmitIntermediate) are filled from the selected preset by Resolve.
type PollConfig struct {
	Preset           string        `mapstructure:"preset" yaml:"preset"`
	Interval         time.Duration `mapstructure:"interval" yaml:"interval"`
	MaxAttempts      int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	EmitIntermediate *bool         `mapstructure:"emit_intermediate" yaml:"emit_intermediate"`
	ResultMode       string        `mapstructure:"result_mode" yaml:"result_mode"`
}

// PollPreset returns the settings of a named preset.
func PollPreset(name string) (PollConfig, error) {
	switch name {
	case PresetStructured:
		emit := false
		return PollConfig{
			Preset:           PresetStructured,
			Interval:         2 * time.Second,
			MaxAttempts:      11,
			EmitIntermediate: &emit,
			ResultMode:       "structured",
		}, nil
	case PresetRaw:
		emit := true
		return PollConfig{
			Preset:           PresetRaw,
			Interval:         3 * time.Second,
			MaxAttempts:      10,
			EmitIntermediate: &emit,
			ResultMode:       "raw",
		}, nil
	}
	return PollConfig{}, fmt.Errorf("unknown poll preset %q (expected %q or %q)", name, PresetStructured, PresetRaw)
}

// Resolve applies the preset underneath any explicitly set fields.
func (p PollConfig) Resolve() (PollConfig, error) {
	name := p.Preset
	if name == "" {
		name = PresetStructured
	}
	out, err := PollPreset(name)
	if err != nil {
		return PollConfig{}, err
	}
	if p.Interval != 0 {
		out.Interval = p.Interval
	}
	if p.MaxAttempts != 0 {
		out.MaxAttempts = p.MaxAttempts
	}
	if p.EmitIntermediate != nil {
		emit := *p.EmitIntermediate
		out.EmitIntermediate = &emit
	}
	if p.ResultMode != "" {
		out.ResultMode = p.ResultMode
	}
	return out, nil
}

// Emit dereferences EmitIntermediate.
func (p PollConfig) Emit() bool {
	return p.EmitIntermediate != nil && *p.EmitIntermediate
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are static; failing here is a programming error.
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tracescore")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "30s")
	v.SetDefault("browser.close_timeout", "10s")

	// -- Page --
	v.SetDefault("page.url", DefaultPageURL)
	v.SetDefault("page.selectors.source_empty", "#srcModelEmpty")
	v.SetDefault("page.selectors.target_empty", "#tgtModelEmpty")
	v.SetDefault("page.selectors.source_file", "#srcModelFileIn")
	v.SetDefault("page.selectors.target_file", "#tgtModelFileIn")
	v.SetDefault("page.selectors.trace_file", "#traceFileIn")
	v.SetDefault("page.selectors.execute", "#execTrace")
	v.SetDefault("page.selectors.status", "#stdout")

	// -- Inputs --
	v.SetDefault("inputs.source", "/app/source.mdl")
	v.SetDefault("inputs.target", "/app/target.mdl")
	v.SetDefault("inputs.trace", "/app/trace.nbt")

	// -- Poll --
	v.SetDefault("poll.preset", PresetStructured)
}

// envOnlyKeys have no default but must still be overridable from the environment;
// viper's Unmarshal ignores env vars for keys it has never seen.
var envOnlyKeys = []string{
	"browser.exec_path",
	"browser.args",
	"poll.interval",
	"poll.max_attempts",
	"poll.emit_intermediate",
	"poll.result_mode",
}

// BindEnv enables TRACESCORE_* overrides for every configuration key,
// e.g. TRACESCORE_BROWSER_EXEC_PATH for browser.exec_path.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("TRACESCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
// The poll preset is resolved before validation.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	poll, err := cfg.Poll.Resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Poll = poll

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Page.URL == "" {
		return fmt.Errorf("page.url is a required configuration field")
	}
	if err := c.Page.Selectors.Validate(); err != nil {
		return fmt.Errorf("page.selectors configuration invalid: %w", err)
	}
	if err := c.Poll.Validate(); err != nil {
		return fmt.Errorf("poll configuration invalid: %w", err)
	}
	if c.Browser.ActionTimeout < 0 || c.Browser.NavigationTimeout < 0 || c.Browser.LaunchTimeout < 0 {
		return fmt.Errorf("browser timeouts must not be negative")
	}
	return nil
}

// Validate checks that every control has a selector.
func (s *SelectorsConfig) Validate() error {
	fields := []struct{ name, value string }{
		{"source_empty", s.SourceEmpty},
		{"target_empty", s.TargetEmpty},
		{"source_file", s.SourceFile},
		{"target_file", s.TargetFile},
		{"trace_file", s.TraceFile},
		{"execute", s.Execute},
		{"status", s.Status},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s must not be empty", f.name)
		}
	}
	return nil
}

// Validate checks the resolved poll settings.
func (p *PollConfig) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if p.ResultMode != "structured" && p.ResultMode != "raw" {
		return fmt.Errorf("result_mode must be \"structured\" or \"raw\", got %q", p.ResultMode)
	}
	return nil
}

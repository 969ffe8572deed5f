// Package config loads relay.toml and the RELAY_* environment overrides and
// applies them to the process-wide relay state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"relay/internal/alarm"
	"relay/internal/debug"
	"relay/internal/message"
	"relay/internal/messaging"
	"relay/internal/sink"
)

// FileName is the configuration file searched for from the working directory
// upwards.
const FileName = "relay.toml"

// EnvStrict enables strict mode when set to a true value.
const EnvStrict = "RELAY_STRICT"

// Config mirrors relay.toml.
type Config struct {
	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `toml:"-"`

	Strict bool        `toml:"strict"`
	Debug  DebugConfig `toml:"debug"`
	Log    LogConfig   `toml:"log"`
	Alarm  AlarmConfig `toml:"alarm"`
}

type DebugConfig struct {
	Patterns string   `toml:"patterns"`
	Ignore   []string `toml:"ignore"`
}

type LogConfig struct {
	Destination string `toml:"destination"`
	Format      string `toml:"format"`
	Color       string `toml:"color"`
	RingSize    int64  `toml:"ring_size"`
	ShowStacks  bool   `toml:"show_stacks"`
}

type AlarmConfig struct {
	Rate      float64  `toml:"rate"`
	Window    Duration `toml:"window"`
	CoolDown  Duration `toml:"cool_down"`
	Threshold string   `toml:"threshold"`
}

// Duration decodes TOML strings such as "90s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no relay.toml exists.
func Default() *Config {
	return &Config{
		Log: LogConfig{Destination: "console", Format: "auto", Color: "auto"},
		Alarm: AlarmConfig{
			Window:    Duration{time.Minute},
			CoolDown:  Duration{5 * time.Minute},
			Threshold: message.StatusProblem.String(),
		},
	}
}

// Find walks from startDir up to the filesystem root looking for relay.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes the file at path over the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest relay.toml above startDir, or the defaults when
// there is none, and applies the environment overrides.
func Discover(startDir string) (*Config, error) {
	cfg := Default()
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if ok {
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration from RELAY_DEBUG, RELAY_LOG and
// RELAY_STRICT. Unset or empty variables leave the file values alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(debug.EnvVar); v != "" {
		c.Debug.Patterns = v
	}
	if v := getenv(sink.EnvVar); v != "" {
		c.Log.Destination = v
	}
	if v := getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}
		c.Strict = strict
	}
	return c.Validate()
}

// Validate checks every value that is parsed lazily elsewhere.
func (c *Config) Validate() error {
	if _, err := debug.ParsePatterns(c.Debug.Patterns); err != nil {
		return fmt.Errorf("debug.patterns: %w", err)
	}
	if _, err := c.SinkConfig(); err != nil {
		return err
	}
	if _, err := c.AlarmConfig(); err != nil {
		return err
	}
	return nil
}

// SinkConfig converts the [log] table.
func (c *Config) SinkConfig() (sink.Config, error) {
	format, err := sink.ParseFormat(c.Log.Format)
	if err != nil {
		return sink.Config{}, fmt.Errorf("log.format: %w", err)
	}
	color, err := sink.ParseColorMode(c.Log.Color)
	if err != nil {
		return sink.Config{}, fmt.Errorf("log.color: %w", err)
	}
	size, err := safecast.Conv[uint32](c.Log.RingSize)
	if err != nil {
		return sink.Config{}, fmt.Errorf("log.ring_size: %w", err)
	}
	return sink.Config{
		Destination: c.Log.Destination,
		Format:      format,
		Color:       color,
		RingSize:    int(size),
		ShowStacks:  c.Log.ShowStacks,
	}, nil
}

// AlarmConfig converts the [alarm] table.
func (c *Config) AlarmConfig() (alarm.Config, error) {
	cfg := alarm.Config{
		Window:      c.Alarm.Window.Duration,
		TriggerRate: alarm.Rate(c.Alarm.Rate),
		CoolDown:    c.Alarm.CoolDown.Duration,
	}
	if c.Alarm.Rate < 0 {
		return alarm.Config{}, fmt.Errorf("alarm.rate: negative rate %v", c.Alarm.Rate)
	}
	if c.Alarm.Threshold != "" {
		threshold, err := message.ParseStatus(c.Alarm.Threshold)
		if err != nil {
			return alarm.Config{}, fmt.Errorf("alarm.threshold: %w", err)
		}
		cfg.Threshold = threshold
	}
	return cfg, nil
}

// Apply sets strict mode and installs a default debug registry built from
// the patterns and ignore prefixes.
func (c *Config) Apply() error {
	patterns, err := debug.ParsePatterns(c.Debug.Patterns)
	if err != nil {
		return fmt.Errorf("debug.patterns: %w", err)
	}
	reg := debug.NewRegistry(patterns)
	if len(c.Debug.Ignore) > 0 {
		reg.Ignore(c.Debug.Ignore...)
	}
	debug.SetDefault(reg)
	messaging.SetStrict(c.Strict)
	return nil
}

package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the daemon and CLI configuration
type Config struct {
	Controller     ControllerConfig     `yaml:"controller"`
	Poll           PollConfig           `yaml:"poll"`
	Identity       IdentityConfig       `yaml:"identity"`
	Classification ClassificationConfig `yaml:"classification"`
	Reconcile      ReconcileConfig      `yaml:"reconcile"`
	Probe          ProbeConfig          `yaml:"probe"`
	Server         ServerConfig         `yaml:"server"`
	Log            LogConfig            `yaml:"log"`
}

// ControllerConfig locates the SDN controller REST API
type ControllerConfig struct {
	URL     string   `yaml:"url" validate:"required,url"`
	Timeout Duration `yaml:"timeout" validate:"min=100ms,max=1m"`
}

// PollConfig controls the periodic observe loop
type PollConfig struct {
	Interval Duration `yaml:"interval" validate:"min=1s"`
}

// IdentityConfig selects the router label store. An empty database keeps
// labels in memory only.
type IdentityConfig struct {
	Database string `yaml:"database"`
}

// ClassificationConfig tunes router detection
type ClassificationConfig struct {
	VTEPPrefixes []string `yaml:"vtep_prefixes" validate:"dive,required"`
}

// ReconcileConfig controls the desired-state reconciler
type ReconcileConfig struct {
	DesiredFile string   `yaml:"desired_file"`
	Concurrency int      `yaml:"concurrency" validate:"min=1,max=64"`
	LANs        []string `yaml:"lans" validate:"dive,cidr"`
	OnChange    bool     `yaml:"on_change"`
}

// ProbeConfig enables nmap host liveness annotation
type ProbeConfig struct {
	Enabled bool     `yaml:"enabled"`
	Timeout Duration `yaml:"timeout" validate:"min=1s"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// SlogLevel maps the configured level onto slog
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

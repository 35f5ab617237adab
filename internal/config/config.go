// Package config loads the sdnview configuration file.
//
// Config file locations (priority order):
//  1. $SDNVIEW_CONFIG
//  2. ./sdnview.yaml
//  3. $XDG_CONFIG_HOME/sdnview/config.yaml
//  4. ~/.config/sdnview/config.yaml
//  5. /etc/sdnview/config.yaml
//
// Missing sections take their defaults; the result is validated before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// validate is shared; validator caches struct metadata
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Duration fields validate as time.Duration so min/max accept "1s"
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Duration); ok {
			return time.Duration(d)
		}
		return nil
	}, Duration(0))
	return v
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the configuration used when no file is found
func DefaultConfig() *Config {
	return &Config{
		Controller:     ControllerConfig{URL: "http://localhost:8080", Timeout: Duration(2 * time.Second)},
		Poll:           PollConfig{Interval: Duration(5 * time.Second)},
		Identity:       IdentityConfig{Database: "./sdnview.db"},
		Classification: ClassificationConfig{VTEPPrefixes: []string{"vxlan"}},
		Reconcile:      ReconcileConfig{Concurrency: 4, LANs: []string{}},
		Probe:          ProbeConfig{Timeout: Duration(30 * time.Second)},
		Server:         ServerConfig{Addr: ":3000"},
		Log:            LogConfig{Level: "info"},
	}
}

// applyDefaults restores defaults for values a file explicitly zeroed
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Controller.Timeout == 0 {
		c.Controller.Timeout = def.Controller.Timeout
	}
	if c.Poll.Interval == 0 {
		c.Poll.Interval = def.Poll.Interval
	}
	if len(c.Classification.VTEPPrefixes) == 0 {
		c.Classification.VTEPPrefixes = def.Classification.VTEPPrefixes
	}
	if c.Reconcile.Concurrency == 0 {
		c.Reconcile.Concurrency = def.Reconcile.Concurrency
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = def.Probe.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate checks field constraints and reports every violation
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

// Summary returns a one-line description for startup logs
func (c *Config) Summary() string {
	store := c.Identity.Database
	if store == "" {
		store = "memory"
	}
	return fmt.Sprintf("controller=%s poll=%s store=%s probe=%t lans=%d",
		c.Controller.URL, c.Poll.Interval.Duration(), store, c.Probe.Enabled, len(c.Reconcile.LANs))
}

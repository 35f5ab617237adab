// Package loader reads the operator's desired state from YAML.
package loader

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sdnview/internal/domain"
)

// ErrInvalidDesired wraps every validation failure of a desired state
var ErrInvalidDesired = errors.New("invalid desired state")

// DesiredYAML represents the YAML file structure
type DesiredYAML struct {
	Hosts     []HostYAML `yaml:"hosts"`
	PairOrder []string   `yaml:"pair_order,omitempty"`
}

// HostYAML represents a desired host in YAML format
type HostYAML struct {
	Name string `yaml:"name"`
	IP   string `yaml:"ip"`
}

// LoadYAML loads the desired state from a YAML file
func LoadYAML(path string) (domain.DesiredState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DesiredState{}, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses and validates the desired state from YAML bytes
func ParseYAML(data []byte) (domain.DesiredState, error) {
	var y DesiredYAML
	if err := yaml.Unmarshal(data, &y); err != nil {
		return domain.DesiredState{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	desired := domain.DesiredState{PairOrder: y.PairOrder}
	for _, h := range y.Hosts {
		desired.Hosts = append(desired.Hosts, domain.DesiredHost{
			Name: strings.TrimSpace(h.Name),
			IP:   strings.TrimSpace(h.IP),
		})
	}

	if err := Validate(desired); err != nil {
		return domain.DesiredState{}, err
	}
	return desired, nil
}

// Validate checks names and addresses are present and unique, and that the
// pair order only names known hosts
func Validate(d domain.DesiredState) error {
	var problems []string

	names := make(map[string]bool, len(d.Hosts))
	ips := make(map[string]bool, len(d.Hosts))
	for i, h := range d.Hosts {
		switch {
		case h.Name == "":
			problems = append(problems, fmt.Sprintf("host %d: missing name", i))
		case names[h.Name]:
			problems = append(problems, fmt.Sprintf("host %q: duplicate name", h.Name))
		}
		names[h.Name] = true

		addr, err := netip.ParseAddr(h.IP)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("host %q: invalid ip %q", h.Name, h.IP))
		case ips[addr.String()]:
			problems = append(problems, fmt.Sprintf("host %q: duplicate ip %s", h.Name, h.IP))
		default:
			ips[addr.String()] = true
		}
	}

	seen := make(map[string]bool, len(d.PairOrder))
	for _, name := range d.PairOrder {
		if !names[name] {
			problems = append(problems, fmt.Sprintf("pair_order: unknown host %q", name))
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("pair_order: %q listed twice", name))
		}
		seen[name] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDesired, strings.Join(problems, "; "))
	}
	return nil
}

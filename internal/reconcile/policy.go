package reconcile

import (
	"fmt"
	"net/netip"
	"slices"
)

// LANPolicy restricts pair installation to addresses inside a set of
// prefixes. The zero value allows everything.
type LANPolicy struct {
	prefixes []netip.Prefix
}

// NewLANPolicy parses CIDR prefixes
func NewLANPolicy(cidrs []string) (LANPolicy, error) {
	var p LANPolicy
	for _, c := range cidrs {
		prefix, err := netip.ParsePrefix(c)
		if err != nil {
			return LANPolicy{}, fmt.Errorf("invalid LAN prefix %q: %w", c, err)
		}
		p.prefixes = append(p.prefixes, prefix.Masked())
	}
	return p, nil
}

// Enabled reports whether any prefix is configured
func (p LANPolicy) Enabled() bool {
	return len(p.prefixes) > 0
}

// Allows reports whether a pair between a and b may be installed: both
// addresses must fall inside some configured prefix, not necessarily the same
func (p LANPolicy) Allows(a, b string) bool {
	if !p.Enabled() {
		return true
	}
	return p.contains(a) && p.contains(b)
}

func (p LANPolicy) contains(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(p.prefixes, func(prefix netip.Prefix) bool {
		return prefix.Contains(addr)
	})
}

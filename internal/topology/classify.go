package topology

import (
	"regexp"
	"strings"

	"sdnview/internal/domain"
)

// InfraPattern is one named rule for infrastructure port names
type InfraPattern struct {
	Name  string
	Match func(name string) bool
}

var (
	interSwitchRe = regexp.MustCompile(`^[a-z0-9_.]+-to-[a-z0-9_.]+$`)
	tunnelSysRe   = regexp.MustCompile(`^[a-z]+_sys(_[0-9]+)?$`)
	localBridgeRe = regexp.MustCompile(`^(br-|br[0-9]|ovs-br|vxlan-br$)`)
	// vxlan is a bare prefix like the VTEP rule; the short names need a
	// separator or digit so that "green-eth0" is not a tunnel
	tunnelPortRe = regexp.MustCompile(`^(vxlan|(gre|geneve|stt)([0-9_-]|$))`)
)

// InfraPatterns is the fixed set of rules that mark a port as used for
// inter-device connectivity rather than end-host attachment
var InfraPatterns = []InfraPattern{
	{Name: "inter-switch link", Match: interSwitchRe.MatchString},
	{Name: "router link", Match: func(n string) bool {
		return (strings.Contains(n, "router") && strings.Contains(n, "link")) || n == "lan1" || n == "lan2"
	}},
	{Name: "tunnel system port", Match: tunnelSysRe.MatchString},
	{Name: "tunnel port", Match: tunnelPortRe.MatchString},
	{Name: "datapath local port", Match: localBridgeRe.MatchString},
	{Name: "patch port", Match: func(n string) bool {
		return strings.HasPrefix(n, "patch-") || strings.HasPrefix(n, "patch_")
	}},
}

// MatchInfraPattern returns the name of the first rule matching a port name
func MatchInfraPattern(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	for _, p := range InfraPatterns {
		if p.Match(name) {
			return p.Name, true
		}
	}
	return "", false
}

// Classifier decides whether ports are infrastructure and host records ghosts
type Classifier struct {
	index   *PortIndex
	routers RouterSet
}

// NewClassifier creates a classifier over one snapshot
func NewClassifier(index *PortIndex, routers RouterSet) *Classifier {
	return &Classifier{index: index, routers: routers}
}

// IsRouter reports whether the datapath is a router
func (c *Classifier) IsRouter(dpid string) bool {
	return c.routers.Contains(dpid)
}

// IsInfrastructure reports whether a port is infrastructure. Every port of
// a router is. Otherwise the port's name decides; an unnamed port is never
// infrastructure.
func (c *Classifier) IsInfrastructure(ref domain.PortRef) bool {
	if c.IsRouter(ref.DatapathID) {
		return true
	}
	_, ok := MatchInfraPattern(c.index.Name(ref))
	return ok
}

// IsGhost reports whether a host record is a discovery artifact: attached
// to a router, or attached to an infrastructure port without an address.
// Records without an attachment are never ghosts by this rule; callers
// handle them as unresolved.
func (c *Classifier) IsGhost(rec domain.HostRecord) bool {
	if rec.Attachment == nil {
		return false
	}
	return c.isGhostAt(*rec.Attachment, rec.HasIP())
}

func (c *Classifier) isGhostAt(ref domain.PortRef, hasIP bool) bool {
	if c.IsRouter(ref.DatapathID) {
		return true
	}
	return c.IsInfrastructure(ref) && !hasIP
}

package domain

import "strings"

// HostSource identifies which feed produced a host record
type HostSource string

const (
	// HostSourceDiscovery - link-layer observed hosts (primary feed)
	HostSourceDiscovery HostSource = "discovery"
	// HostSourceHostMap - administratively registered hosts (secondary feed)
	HostSourceHostMap HostSource = "hostmap"
)

// HostRecord is a raw host entry from one of the host feeds
type HostRecord struct {
	MAC        string     `json:"mac,omitempty"`
	Name       string     `json:"name,omitempty"`
	IP         string     `json:"ip,omitempty"`
	Attachment *PortRef   `json:"attachment,omitempty"`
	Source     HostSource `json:"source"`
}

// HasIP reports whether the record carries an address
func (r HostRecord) HasIP() bool {
	return r.IP != ""
}

// Host is a merged, resolved network endpoint
type Host struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	IP         string     `json:"ip,omitempty"`
	MAC        string     `json:"mac,omitempty"`
	Attachment PortRef    `json:"attachment"`
	Source     HostSource `json:"source"`
	Reachable  *bool      `json:"reachable,omitempty"`
}

// HostID derives the node identity of a host: its link-layer address when
// known, otherwise its name token
func HostID(mac, name string) string {
	if mac != "" {
		return strings.ToLower(mac)
	}
	return "host:" + name
}

// NameFromIP synthesizes a display name for a host that has none
func NameFromIP(ip string) string {
	replacer := strings.NewReplacer(".", "-", ":", "-")
	return "host-" + replacer.Replace(ip)
}

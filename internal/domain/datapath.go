package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PortNotApplicable marks the side of a link that has no port, such as
// the host end of an attachment edge.
const PortNotApplicable = -1

// Datapath is a forwarding element (switch or router) reported by the controller.
type Datapath struct {
	ID    string `json:"id"`
	Ports []Port `json:"ports"`
}

// Port is an interface on a datapath. Name may be empty.
type Port struct {
	DatapathID string `json:"dpid"`
	Index      int    `json:"port_no"`
	Name       string `json:"name,omitempty"`
	HWAddr     string `json:"hw_addr,omitempty"`
}

// Ref returns the port's attachment reference
func (p Port) Ref() PortRef {
	return PortRef{DatapathID: p.DatapathID, Port: p.Index}
}

// PortRef identifies a port by its datapath and index
type PortRef struct {
	DatapathID string `json:"dpid"`
	Port       int    `json:"port"`
}

// String renders the reference as dpid:port
func (r PortRef) String() string {
	return fmt.Sprintf("%s:%d", r.DatapathID, r.Port)
}

// IsZero reports whether the reference is unset
func (r PortRef) IsZero() bool {
	return r.DatapathID == ""
}

// PhysicalLink is a discovered inter-datapath link
type PhysicalLink struct {
	Src PortRef `json:"src"`
	Dst PortRef `json:"dst"`
}

// CompareDatapathIDs orders datapath identifiers. Identifiers that parse as
// unsigned integers compare numerically and sort before all others; the rest
// compare lexicographically. Numeric ties between different spellings also
// fall back to lexicographic order, so the result is 0 only for equal strings.
func CompareDatapathIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		// "07" and "7" share a value but are distinct keys
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// ComparePortRefs orders references by datapath, then port index
func ComparePortRefs(a, b PortRef) int {
	if c := CompareDatapathIDs(a.DatapathID, b.DatapathID); c != 0 {
		return c
	}
	switch {
	case a.Port < b.Port:
		return -1
	case a.Port > b.Port:
		return 1
	}
	return 0
}

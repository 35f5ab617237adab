package domain

import "time"

// Pair is a directional permission: traffic from Src to Dst is allowed
type Pair struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// Reverse returns the opposite direction
func (p Pair) Reverse() Pair {
	return Pair{Src: p.Dst, Dst: p.Src}
}

// Registration is the controller's known attachment for a host address
type Registration struct {
	IP         string `json:"ip"`
	Hostname   string `json:"hostname"`
	DatapathID string `json:"dpid,omitempty"`
	Port       int    `json:"port"`
}

// Matches reports whether two registrations describe the same attachment
func (r Registration) Matches(other Registration) bool {
	return r.IP == other.IP &&
		r.Hostname == other.Hostname &&
		r.DatapathID == other.DatapathID &&
		r.Port == other.Port
}

// RouterLabel is the persisted display label of a router datapath
type RouterLabel struct {
	DatapathID string    `json:"dpid"`
	Label      string    `json:"label"`
	Seq        int       `json:"seq"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ReconcileRun is the persisted summary of one reconciliation pass
type ReconcileRun struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Registered    int       `json:"registered"`
	Unchanged     int       `json:"unchanged"`
	HostFailures  int       `json:"host_failures"`
	PairsAdded    int       `json:"pairs_added"`
	PairsPresent  int       `json:"pairs_present"`
	PairFailures  int       `json:"pair_failures"`
	PolicySkipped int       `json:"policy_skipped"`
	Writes        int       `json:"writes"`
	Errors        []string  `json:"errors,omitempty"`
}

// Failed reports whether any item of the run failed
func (r ReconcileRun) Failed() bool {
	return r.HostFailures > 0 || r.PairFailures > 0
}

// DesiredHost is one end-system the operator wants registered
type DesiredHost struct {
	Name string `json:"name" yaml:"name"`
	IP   string `json:"ip" yaml:"ip"`
}

// DesiredState is the operator's intent for one reconciliation pass
type DesiredState struct {
	Hosts []DesiredHost `json:"hosts" yaml:"hosts"`
	// PairOrder lists host names for symmetric pairing; empty means host order
	PairOrder []string `json:"pair_order,omitempty" yaml:"pair_order,omitempty"`
}

// Order returns the host names to pair, in order
func (d DesiredState) Order() []string {
	if len(d.PairOrder) > 0 {
		return d.PairOrder
	}
	out := make([]string, len(d.Hosts))
	for i, h := range d.Hosts {
		out[i] = h.Name
	}
	return out
}

package reconcile

import (
	"time"

	"sdnview/internal/collector"
	"sdnview/internal/domain"
)

// HostAction is what happened to one desired host
type HostAction string

const (
	HostRegistered HostAction = "registered"
	HostUnchanged  HostAction = "unchanged"
	HostFailed     HostAction = "failed"
)

// PairAction is what happened to one direction of a couple
type PairAction string

const (
	PairAdded         PairAction = "added"
	PairPresent       PairAction = "present"
	PairFailed        PairAction = "failed"
	PairPolicySkipped PairAction = "policy_skipped"
)

// HostOutcome reports the registration of one desired host
type HostOutcome struct {
	Name       string          `json:"name"`
	IP         string          `json:"ip"`
	Attachment *domain.PortRef `json:"attachment,omitempty"`
	PortName   string          `json:"port_name,omitempty"`
	Action     HostAction      `json:"action"`
	Err        error           `json:"-"`
	Error      string          `json:"error,omitempty"`
}

// PairOutcome reports one direction of a couple
type PairOutcome struct {
	Couple Couple      `json:"couple"`
	Pair   domain.Pair `json:"pair"`
	Action PairAction  `json:"action"`
	Err    error       `json:"-"`
	Error  string      `json:"error,omitempty"`
}

// Result is the report of one reconciliation pass
type Result struct {
	ID           string                 `json:"id"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
	Hosts        []HostOutcome          `json:"hosts"`
	Pairs        []PairOutcome          `json:"pairs"`
	Unpaired     string                 `json:"unpaired,omitempty"`
	Writes       int                    `json:"writes"`
	Availability collector.Availability `json:"availability"`
}

// Failed reports whether any host or pair failed
func (r *Result) Failed() bool {
	for _, h := range r.Hosts {
		if h.Action == HostFailed {
			return true
		}
	}
	for _, p := range r.Pairs {
		if p.Action == PairFailed {
			return true
		}
	}
	return false
}

// Summary condenses the result for run history
func (r *Result) Summary() domain.ReconcileRun {
	run := domain.ReconcileRun{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Writes:     r.Writes,
	}
	for _, h := range r.Hosts {
		switch h.Action {
		case HostRegistered:
			run.Registered++
		case HostUnchanged:
			run.Unchanged++
		case HostFailed:
			run.HostFailures++
			run.Errors = append(run.Errors, h.Name+": "+h.Error)
		}
	}
	for _, p := range r.Pairs {
		switch p.Action {
		case PairAdded:
			run.PairsAdded++
		case PairPresent:
			run.PairsPresent++
		case PairPolicySkipped:
			run.PolicySkipped++
		case PairFailed:
			run.PairFailures++
			run.Errors = append(run.Errors, p.Pair.Src+"->"+p.Pair.Dst+": "+p.Error)
		}
	}
	return run
}

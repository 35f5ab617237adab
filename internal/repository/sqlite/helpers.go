package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sdnview/internal/domain"
)

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a string slice to nullable JSON.
// Returns empty NullString for nil or empty slices
func marshalToNull(v []string) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Row Types
// ============================================================================

// labelRow holds the scanned columns of router_identities
type labelRow struct {
	dpid       string
	label      string
	seq        int
	assignedAt time.Time
}

func (r *labelRow) scanArgs() []interface{} {
	return []interface{}{&r.dpid, &r.label, &r.seq, &r.assignedAt}
}

func (r *labelRow) toDomain() domain.RouterLabel {
	return domain.RouterLabel{
		DatapathID: r.dpid,
		Label:      r.label,
		Seq:        r.seq,
		AssignedAt: r.assignedAt.UTC(),
	}
}

// runRow holds the scanned columns of reconcile_runs
type runRow struct {
	id            string
	startedAt     time.Time
	finishedAt    time.Time
	registered    int
	unchanged     int
	hostFailures  int
	pairsAdded    int
	pairsPresent  int
	pairFailures  int
	policySkipped int
	writes        int
	errors        sql.NullString
}

func (r *runRow) scanArgs() []interface{} {
	return []interface{}{
		&r.id, &r.startedAt, &r.finishedAt, &r.registered, &r.unchanged,
		&r.hostFailures, &r.pairsAdded, &r.pairsPresent, &r.pairFailures,
		&r.policySkipped, &r.writes, &r.errors,
	}
}

func (r *runRow) toDomain() (domain.ReconcileRun, error) {
	run := domain.ReconcileRun{
		ID:            r.id,
		StartedAt:     r.startedAt.UTC(),
		FinishedAt:    r.finishedAt.UTC(),
		Registered:    r.registered,
		Unchanged:     r.unchanged,
		HostFailures:  r.hostFailures,
		PairsAdded:    r.pairsAdded,
		PairsPresent:  r.pairsPresent,
		PairFailures:  r.pairFailures,
		PolicySkipped: r.policySkipped,
		Writes:        r.writes,
	}
	if err := unmarshalJSONField(r.errors, &run.Errors); err != nil {
		return run, fmt.Errorf("failed to unmarshal run errors: %w", err)
	}
	return run, nil
}

// ============================================================================
// Insert Argument Builders
// ============================================================================

func labelInsertArgs(l domain.RouterLabel) []interface{} {
	return []interface{}{l.DatapathID, l.Label, l.Seq, l.AssignedAt.UTC()}
}

func runInsertArgs(run domain.ReconcileRun) ([]interface{}, error) {
	errs, err := marshalToNull(run.Errors)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Registered, run.Unchanged, run.HostFailures,
		run.PairsAdded, run.PairsPresent, run.PairFailures,
		run.PolicySkipped, run.Writes, errs,
	}, nil
}

package topology

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"sdnview/internal/domain"
	"sdnview/internal/identity"
)

// Inputs is the raw material of one pass. A source that was unavailable is
// an empty slice; empty and absent are treated identically.
type Inputs struct {
	Switches     []domain.Datapath
	RouterConfig []string
	Links        []domain.PhysicalLink
	Hosts        []domain.HostRecord // primary, discovery-derived
	HostMap      []domain.HostRecord // secondary, static
	Unavailable  []string
}

// BuildReport describes how a snapshot was derived
type BuildReport struct {
	Merge      MergeStats           `json:"merge"`
	NewRouters []domain.RouterLabel `json:"new_routers,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
}

// Builder runs the inference pipeline
type Builder struct {
	assigner *identity.Assigner
	markers  []string
	now      func() time.Time
}

// NewBuilder creates a builder that labels datapaths through assigner.
// markers are the VTEP port-name prefixes; nil selects DefaultVTEPMarkers.
func NewBuilder(assigner *identity.Assigner, markers []string) *Builder {
	return &Builder{
		assigner: assigner,
		markers:  markers,
		now:      time.Now,
	}
}

// Build derives an immutable snapshot from in. It never fails: identity
// persistence problems are reported as warnings and leave the affected
// routers unlabeled until a later pass.
func (b *Builder) Build(ctx context.Context, in Inputs) (*domain.Snapshot, *BuildReport) {
	report := &BuildReport{}

	datapaths := normalizeDatapaths(in.Switches)
	index := NewPortIndex(datapaths)
	routers := ClassifyRouters(datapaths, in.RouterConfig, b.markers)
	classifier := NewClassifier(index, routers)

	hosts, stats := MergeHosts(in.Hosts, in.HostMap, index, classifier)
	report.Merge = stats

	assignment, err := b.assigner.Assign(ctx, routers, datapaths)
	if err != nil {
		report.Warnings = append(report.Warnings, err.Error())
		slog.Warn("identity assignment incomplete", "error", err)
	}
	report.NewRouters = assignment.NewRouters

	present := make(map[string]struct{}, len(datapaths))
	for _, dp := range datapaths {
		present[dp.ID] = struct{}{}
	}
	links := SynthesizeLinks(in.Links, hosts, routers, present)

	unavailable := slices.Clone(in.Unavailable)
	slices.Sort(unavailable)

	snap := &domain.Snapshot{
		ID:          uuid.NewString(),
		TakenAt:     b.now().UTC(),
		Datapaths:   datapaths,
		Routers:     []string(routers),
		Labels:      assignment.Labels,
		Hosts:       hosts,
		Links:       links,
		Unavailable: unavailable,
	}

	slog.Debug("built snapshot",
		"snapshot", snap.ID,
		"datapaths", len(datapaths),
		"routers", len(routers),
		"hosts", len(hosts),
		"links", len(links),
		"ghosts", stats.Ghosts)

	return snap, report
}

// normalizeDatapaths returns a sorted deep copy with owning IDs filled in,
// so nothing downstream can alias the caller's slices
func normalizeDatapaths(in []domain.Datapath) []domain.Datapath {
	out := make([]domain.Datapath, 0, len(in))
	for _, dp := range in {
		if dp.ID == "" {
			continue
		}
		ports := make([]domain.Port, len(dp.Ports))
		for i, p := range dp.Ports {
			p.DatapathID = dp.ID
			ports[i] = p
		}
		slices.SortFunc(ports, func(x, y domain.Port) int {
			return x.Index - y.Index
		})
		out = append(out, domain.Datapath{ID: dp.ID, Ports: ports})
	}
	slices.SortFunc(out, func(x, y domain.Datapath) int {
		return domain.CompareDatapathIDs(x.ID, y.ID)
	})
	return out
}

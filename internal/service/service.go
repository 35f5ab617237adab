package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sdnview/internal/collector"
	"sdnview/internal/domain"
	"sdnview/internal/identity"
	"sdnview/internal/metrics"
	"sdnview/internal/probe"
	"sdnview/internal/reconcile"
	"sdnview/internal/repository"
	"sdnview/internal/topology"
)

// ErrNoDesiredState is returned when a reconciliation is requested with no
// desired state loaded
var ErrNoDesiredState = errors.New("no desired state loaded")

// PairRemover withdraws a single directional pair from the controller
type PairRemover interface {
	RemovePair(ctx context.Context, pair domain.Pair) error
}

// Deps are the collaborators of a TopologyService. Prober, History and
// Metrics are optional.
type Deps struct {
	Collector *collector.Collector
	Assigner  *identity.Assigner
	Engine    *reconcile.Engine
	Remover   PairRemover
	Prober    probe.Prober
	History   repository.RunHistory
	Metrics   *metrics.Registry
	EventBus  *EventBus
	// VTEPMarkers are the router port-name prefixes; nil selects the default
	VTEPMarkers []string
}

// TopologyService runs observe and reconcile passes
type TopologyService struct {
	pass sync.Mutex

	collector *collector.Collector
	builder   *topology.Builder
	assigner  *identity.Assigner
	engine    *reconcile.Engine
	remover   PairRemover
	prober    probe.Prober
	history   repository.RunHistory
	metrics   *metrics.Registry
	eventBus  *EventBus

	mu         sync.RWMutex
	latest     *domain.Snapshot
	report     *topology.BuildReport
	desired    *domain.DesiredState
	lastResult *reconcile.Result
}

// NewTopologyService creates a new topology service
func NewTopologyService(d Deps) *TopologyService {
	if d.EventBus == nil {
		d.EventBus = NewEventBus()
	}
	return &TopologyService{
		collector: d.Collector,
		builder:   topology.NewBuilder(d.Assigner, d.VTEPMarkers),
		assigner:  d.Assigner,
		engine:    d.Engine,
		remover:   d.Remover,
		prober:    d.Prober,
		history:   d.History,
		metrics:   d.Metrics,
		eventBus:  d.EventBus,
	}
}

// EventBus returns the bus events are published on
func (s *TopologyService) EventBus() *EventBus {
	return s.eventBus
}

// Observe runs one observe pass and publishes the resulting snapshot
func (s *TopologyService) Observe(ctx context.Context) (*domain.Snapshot, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	start := time.Now()

	raw := s.collector.Collect(ctx, collector.ObserveSources...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap, report := s.builder.Build(ctx, raw.Inputs())

	if s.prober != nil && len(snap.Hosts) > 0 {
		reach, err := s.prober.Probe(ctx, probe.Addresses(snap.Hosts))
		if err != nil {
			slog.Warn("host probe failed, reachability unknown", "error", err)
		} else {
			snap.Hosts = probe.Annotate(snap.Hosts, reach)
		}
	}

	s.mu.Lock()
	s.latest = snap
	s.report = report
	s.mu.Unlock()

	s.recordObserve(snap, report, time.Since(start))

	for _, l := range report.NewRouters {
		s.eventBus.Publish(Event{
			Type:    EventRouterLabeled,
			Payload: l,
		})
	}
	s.eventBus.Publish(Event{
		Type: EventTopologyUpdated,
		Payload: map[string]any{
			"snapshot_id": snap.ID,
			"hosts":       len(snap.Hosts),
			"links":       len(snap.Links),
			"unavailable": snap.Unavailable,
		},
	})

	slog.Info("observe pass complete",
		"snapshot", snap.ID,
		"datapaths", len(snap.Datapaths),
		"hosts", len(snap.Hosts),
		"unavailable", len(snap.Unavailable),
		"duration", time.Since(start))

	return snap, nil
}

func (s *TopologyService) recordObserve(snap *domain.Snapshot, report *topology.BuildReport, d time.Duration) {
	if s.metrics == nil {
		return
	}
	byKind := make(map[string]int)
	for _, l := range snap.Links {
		byKind[string(l.Kind)]++
	}
	s.metrics.RecordPass(metrics.PassObserve, len(report.Warnings) > 0, d)
	s.metrics.RecordUnavailable(snap.Unavailable)
	s.metrics.RecordSnapshot(len(snap.Hosts), len(snap.Routers), byKind, report.Merge.Ghosts, report.Merge.SubstringMatch)
}

// Snapshot returns the latest snapshot, or nil before the first pass
func (s *TopologyService) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Report returns how the latest snapshot was derived
func (s *TopologyService) Report() *topology.BuildReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Graph returns the visualization graph of the latest snapshot
func (s *TopologyService) Graph() *domain.Graph {
	snap := s.Snapshot()
	if snap == nil {
		return &domain.Graph{Nodes: []domain.GraphNode{}, Edges: []domain.GraphEdge{}}
	}
	return domain.DeriveGraph(snap)
}

// Identities returns the persisted router labels by counter value
func (s *TopologyService) Identities() []domain.RouterLabel {
	return s.assigner.RouterLabels()
}

// SetDesired replaces the stored desired state
func (s *TopologyService) SetDesired(d domain.DesiredState) {
	s.mu.Lock()
	s.desired = &d
	s.mu.Unlock()

	s.eventBus.Publish(Event{
		Type:    EventDesiredReloaded,
		Payload: map[string]int{"hosts": len(d.Hosts)},
	})
}

// Desired returns the stored desired state
func (s *TopologyService) Desired() (domain.DesiredState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.desired == nil {
		return domain.DesiredState{}, false
	}
	return *s.desired, true
}

// LastResult returns the result of the latest reconciliation
func (s *TopologyService) LastResult() *reconcile.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// ReconcileStored runs a reconciliation against the stored desired state
func (s *TopologyService) ReconcileStored(ctx context.Context) (*reconcile.Result, error) {
	desired, ok := s.Desired()
	if !ok {
		return nil, ErrNoDesiredState
	}
	return s.Reconcile(ctx, desired)
}

// Reconcile runs one reconciliation pass
func (s *TopologyService) Reconcile(ctx context.Context, desired domain.DesiredState) (*reconcile.Result, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	start := time.Now()
	res, err := s.engine.Run(ctx, desired)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordPass(metrics.PassReconcile, true, time.Since(start))
		}
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPass(metrics.PassReconcile, res.Failed(), time.Since(start))
		s.metrics.RecordUnavailable(res.Availability.Names())
	}

	summary := res.Summary()
	if s.history != nil {
		if err := s.history.RecordRun(ctx, summary); err != nil {
			slog.Warn("failed to record reconcile run", "pass_id", res.ID, "error", err)
		}
	}

	s.mu.Lock()
	s.lastResult = res
	s.mu.Unlock()

	s.eventBus.Publish(Event{
		Type:    EventReconcileCompleted,
		Payload: summary,
	})

	return res, nil
}

// Runs returns recent reconciliation summaries, newest first
func (s *TopologyService) Runs(ctx context.Context, limit int) ([]domain.ReconcileRun, error) {
	if s.history == nil {
		return []domain.ReconcileRun{}, nil
	}
	return s.history.ListRuns(ctx, limit)
}

// RemovePair withdraws one directional pair. Reconciliation never removes
// pairs; this is the operator's explicit retraction.
func (s *TopologyService) RemovePair(ctx context.Context, pair domain.Pair) error {
	if pair.Src == "" || pair.Dst == "" {
		return fmt.Errorf("pair requires src and dst")
	}
	if s.remover == nil {
		return fmt.Errorf("pair removal not supported")
	}

	s.pass.Lock()
	defer s.pass.Unlock()

	err := s.remover.RemovePair(ctx, pair)
	if s.metrics != nil {
		s.metrics.RecordWrite("remove_pair", err)
	}
	if err != nil {
		return fmt.Errorf("remove pair %s->%s: %w", pair.Src, pair.Dst, err)
	}
	slog.Info("removed pair", "src", pair.Src, "dst", pair.Dst)
	return nil
}

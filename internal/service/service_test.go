package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sdnview/internal/collector"
	"sdnview/internal/domain"
	"sdnview/internal/identity"
	"sdnview/internal/reconcile"
	"sdnview/internal/repository/sqlite"
)

// labController is an in-memory controller with one switch, one router and
// two hosts
type labController struct {
	mu      sync.Mutex
	hostmap map[string]domain.Registration
	pairs   map[domain.Pair]bool
	removed []domain.Pair
}

func newLabController() *labController {
	return &labController{
		hostmap: make(map[string]domain.Registration),
		pairs:   make(map[domain.Pair]bool),
	}
}

func (c *labController) Switches(ctx context.Context) ([]domain.Datapath, error) {
	return []domain.Datapath{
		{ID: "1", Ports: []domain.Port{{Index: 1, Name: "s1-to-router1"}, {Index: 2, Name: "peer_h1"}, {Index: 3, Name: "peer_h2"}}},
		{ID: "11", Ports: []domain.Port{{Index: 1, Name: "vxlan0"}, {Index: 2, Name: "router1-link"}}},
	}, nil
}

func (c *labController) RouterConfig(ctx context.Context) ([]string, error) {
	return nil, errors.New("not configured")
}

func (c *labController) Links(ctx context.Context) ([]domain.PhysicalLink, error) {
	return []domain.PhysicalLink{{
		Src: domain.PortRef{DatapathID: "1", Port: 1},
		Dst: domain.PortRef{DatapathID: "11", Port: 2},
	}}, nil
}

func (c *labController) Hosts(ctx context.Context) ([]domain.HostRecord, error) {
	return []domain.HostRecord{
		{MAC: "00:00:00:00:00:01", IP: "10.0.1.1", Attachment: &domain.PortRef{DatapathID: "1", Port: 2}},
		{MAC: "00:00:00:00:00:ff", Attachment: &domain.PortRef{DatapathID: "11", Port: 2}},
	}, nil
}

func (c *labController) HostMap(ctx context.Context) ([]domain.Registration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []domain.Registration{{IP: "10.0.1.2", Hostname: "h2"}}
	for _, r := range c.hostmap {
		if r.IP != "10.0.1.2" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *labController) Pairs(ctx context.Context) ([]domain.Pair, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Pair
	for p := range c.pairs {
		out = append(out, p)
	}
	return out, nil
}

func (c *labController) RegisterHost(ctx context.Context, reg domain.Registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostmap[reg.IP] = reg
	return nil
}

func (c *labController) AddPair(ctx context.Context, pair domain.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs[pair] = true
	return nil
}

func (c *labController) RemovePair(ctx context.Context, pair domain.Pair) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, pair)
	delete(c.pairs, pair)
	return nil
}

type staticProber map[string]bool

func (p staticProber) Probe(ctx context.Context, ips []string) (map[string]bool, error) {
	return p, nil
}

func newTestService(t *testing.T, ctrl *labController) *TopologyService {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	coll := collector.New(ctrl, time.Second)
	return NewTopologyService(Deps{
		Collector: coll,
		Assigner:  identity.NewAssigner(repo),
		Engine:    reconcile.New(coll, ctrl, reconcile.Options{}),
		Remover:   ctrl,
		Prober:    staticProber{"10.0.1.1": true},
		History:   repo,
	})
}

func drain(ch <-chan Event) []EventType {
	var out []EventType
	for {
		select {
		case ev := <-ch:
			out = append(out, ev.Type)
		default:
			return out
		}
	}
}

func TestTopologyServiceObserve(t *testing.T) {
	svc := newTestService(t, newLabController())
	events := make(chan Event, 16)
	svc.EventBus().Subscribe(events)

	if svc.Snapshot() != nil {
		t.Fatal("expected no snapshot before the first pass")
	}

	snap, err := svc.Observe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("hosts merged and ghosts dropped", func(t *testing.T) {
		if len(snap.Hosts) != 2 {
			t.Fatalf("expected 2 hosts, got %+v", snap.Hosts)
		}
		h1, ok := snap.Host("00:00:00:00:00:01")
		if !ok || h1.Reachable == nil || !*h1.Reachable {
			t.Errorf("expected h1 annotated reachable, got %+v", h1)
		}
		h2, ok := snap.Host("host:h2")
		if !ok || h2.Attachment != (domain.PortRef{DatapathID: "1", Port: 3}) {
			t.Errorf("expected h2 resolved to 1:3, got %+v", h2)
		}
	})

	t.Run("router labeled", func(t *testing.T) {
		if snap.DisplayLabel("11") != "router1" {
			t.Errorf("expected router1, got %q", snap.DisplayLabel("11"))
		}
		ids := svc.Identities()
		if len(ids) != 1 || ids[0].DatapathID != "11" {
			t.Errorf("unexpected identities %+v", ids)
		}
	})

	t.Run("unavailable source recorded", func(t *testing.T) {
		if len(snap.Unavailable) != 1 || snap.Unavailable[0] != string(collector.SourceRouterConfig) {
			t.Errorf("expected router_config unavailable, got %v", snap.Unavailable)
		}
	})

	t.Run("events published", func(t *testing.T) {
		got := drain(events)
		want := []EventType{EventRouterLabeled, EventTopologyUpdated}
		if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("expected events %v, got %v", want, got)
		}
	})

	t.Run("second pass introduces no new router", func(t *testing.T) {
		if _, err := svc.Observe(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, ev := range drain(events) {
			if ev == EventRouterLabeled {
				t.Error("expected no router_labeled event on second pass")
			}
		}
	})

	t.Run("graph", func(t *testing.T) {
		g := svc.Graph()
		if len(g.Nodes) != 4 {
			t.Errorf("expected 2 datapaths and 2 hosts, got %d nodes", len(g.Nodes))
		}
	})
}

func TestTopologyServiceReconcile(t *testing.T) {
	ctrl := newLabController()
	svc := newTestService(t, ctrl)
	ctx := context.Background()

	if _, err := svc.ReconcileStored(ctx); !errors.Is(err, ErrNoDesiredState) {
		t.Fatalf("expected ErrNoDesiredState, got %v", err)
	}

	svc.SetDesired(domain.DesiredState{Hosts: []domain.DesiredHost{
		{Name: "h1", IP: "10.0.1.1"},
		{Name: "h2", IP: "10.0.1.2"},
	}})

	res, err := svc.ReconcileStored(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Failed() {
		t.Fatalf("unexpected failures: %+v", res)
	}
	if !ctrl.pairs[domain.Pair{Src: "10.0.1.1", Dst: "10.0.1.2"}] || !ctrl.pairs[domain.Pair{Src: "10.0.1.2", Dst: "10.0.1.1"}] {
		t.Errorf("expected both directions installed, got %v", ctrl.pairs)
	}
	if svc.LastResult() != res {
		t.Error("expected last result to be stored")
	}

	runs, err := svc.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].PairsAdded != 2 {
		t.Errorf("expected one recorded run with 2 pairs added, got %+v", runs)
	}

	t.Run("remove pair", func(t *testing.T) {
		pair := domain.Pair{Src: "10.0.1.1", Dst: "10.0.1.2"}
		if err := svc.RemovePair(ctx, pair); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctrl.pairs[pair] {
			t.Error("expected pair removed")
		}
		if err := svc.RemovePair(ctx, domain.Pair{Src: "10.0.1.1"}); err == nil {
			t.Error("expected error for incomplete pair")
		}
	})
}

func TestPassesAreSerialized(t *testing.T) {
	svc := newTestService(t, newLabController())
	svc.SetDesired(domain.DesiredState{Hosts: []domain.DesiredHost{
		{Name: "h1", IP: "10.0.1.1"},
		{Name: "h2", IP: "10.0.1.2"},
	}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.Observe(ctx)
		}()
		go func() {
			defer wg.Done()
			svc.ReconcileStored(ctx)
		}()
	}
	wg.Wait()

	ids := svc.Identities()
	if len(ids) != 1 || ids[0].Label != "router1" {
		t.Errorf("expected a single router1 label, got %+v", ids)
	}
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	a := make(chan Event, 1)
	b := make(chan Event)
	bus.Subscribe(a)
	bus.Subscribe(b)

	// b has no buffer and no reader; publish must not block
	bus.Publish(Event{Type: EventTopologyUpdated})

	select {
	case ev := <-a:
		if ev.Type != EventTopologyUpdated {
			t.Errorf("unexpected event %v", ev.Type)
		}
	default:
		t.Fatal("expected event on a")
	}

	bus.Unsubscribe(a)
	bus.Publish(Event{Type: EventTopologyUpdated})
	if len(a) != 0 {
		t.Error("expected no event after unsubscribe")
	}
}

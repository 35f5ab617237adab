package topology

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"sdnview/internal/domain"
	"sdnview/internal/identity"
)

func labInputs() Inputs {
	return Inputs{
		Switches: []domain.Datapath{
			dp("1", 1, "s1-to-s2", 2, "peer_h1", 3, "peer_h2"),
			dp("2", 1, "s2-to-s1", 2, "s2-to-router1", 5, "peer_h3"),
			dp("12", 1, "vxlan0", 2, "router2-link"),
			dp("11", 1, "vxlan0", 2, "router1-link"),
		},
		Links: []domain.PhysicalLink{
			{Src: domain.PortRef{DatapathID: "1", Port: 1}, Dst: domain.PortRef{DatapathID: "2", Port: 1}},
			{Src: domain.PortRef{DatapathID: "2", Port: 1}, Dst: domain.PortRef{DatapathID: "1", Port: 1}},
			{Src: domain.PortRef{DatapathID: "2", Port: 2}, Dst: domain.PortRef{DatapathID: "11", Port: 2}},
		},
		Hosts: []domain.HostRecord{
			{MAC: "00:00:00:00:00:01", IP: "10.0.1.1", Attachment: ref("1", 2)},
			{MAC: "00:00:00:00:00:fe", Attachment: ref("2", 2)},
			{MAC: "00:00:00:00:00:ff", IP: "10.0.1.254", Attachment: ref("11", 2)},
		},
		HostMap: []domain.HostRecord{
			{Name: "h1", IP: "10.0.1.1"},
			{Name: "h3", IP: "10.0.1.3"},
		},
	}
}

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder(identity.NewAssigner(identity.NewMemoryStore()), nil)
	snap, report := b.Build(context.Background(), labInputs())

	t.Run("routers labeled in dpid order", func(t *testing.T) {
		if !reflect.DeepEqual(snap.Routers, []string{"11", "12"}) {
			t.Fatalf("unexpected routers %v", snap.Routers)
		}
		if snap.Labels["11"] != "router1" || snap.Labels["12"] != "router2" {
			t.Errorf("unexpected router labels %v", snap.Labels)
		}
		if len(report.NewRouters) != 2 {
			t.Errorf("expected 2 new routers, got %d", len(report.NewRouters))
		}
	})

	t.Run("switch labels inferred", func(t *testing.T) {
		if snap.Labels["1"] != "s1" || snap.Labels["2"] != "s2" {
			t.Errorf("unexpected switch labels %v", snap.Labels)
		}
	})

	t.Run("ghosts excluded", func(t *testing.T) {
		if len(snap.Hosts) != 2 {
			t.Fatalf("expected h1 and h3, got %+v", snap.Hosts)
		}
		for _, h := range snap.Hosts {
			if h.MAC == "00:00:00:00:00:fe" || h.MAC == "00:00:00:00:00:ff" {
				t.Errorf("ghost %s present in snapshot", h.MAC)
			}
		}
		if report.Merge.Ghosts != 2 {
			t.Errorf("expected 2 ghosts, got %d", report.Merge.Ghosts)
		}
	})

	t.Run("edge set", func(t *testing.T) {
		if n := countKind(snap.Links, domain.LinkKindPhysical); n != 2 {
			t.Errorf("expected 2 physical links, got %d", n)
		}
		if n := countKind(snap.Links, domain.LinkKindAttachment); n != 2 {
			t.Errorf("expected 2 attachment links, got %d", n)
		}
		if n := countKind(snap.Links, domain.LinkKindOverlay); n != 1 {
			t.Errorf("expected 1 overlay link, got %d", n)
		}
	})

	t.Run("does not alias inputs", func(t *testing.T) {
		in := labInputs()
		snap, _ := b.Build(context.Background(), in)
		in.Switches[0].Ports[0].Name = "changed"
		if snap.Datapaths[0].Ports[0].Name == "changed" {
			t.Error("expected snapshot to be independent of inputs")
		}
	})
}

func TestBuilderStickyRouterLabel(t *testing.T) {
	b := NewBuilder(identity.NewAssigner(identity.NewMemoryStore()), nil)
	ctx := context.Background()

	in := labInputs()
	first, _ := b.Build(ctx, in)
	if first.Labels["11"] != "router1" {
		t.Fatalf("expected router1, got %q", first.Labels["11"])
	}

	// The VTEP port disappears; datapath 11 now looks like a switch
	in.Switches[3] = dp("11", 2, "s11-to-s2")
	second, _ := b.Build(ctx, in)

	if second.IsRouter("11") {
		t.Error("expected 11 to be reclassified as a switch")
	}
	if second.Labels["11"] != "router1" {
		t.Errorf("expected sticky router1 label, got %q", second.Labels["11"])
	}
}

func TestBuilderEmptyInputs(t *testing.T) {
	b := NewBuilder(identity.NewAssigner(identity.NewMemoryStore()), nil)
	snap, _ := b.Build(context.Background(), Inputs{Unavailable: []string{"switches", "hosts"}})

	if len(snap.Datapaths) != 0 || len(snap.Hosts) != 0 || len(snap.Links) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
	if !reflect.DeepEqual(snap.Unavailable, []string{"hosts", "switches"}) {
		t.Errorf("unexpected unavailable sources %v", snap.Unavailable)
	}
}

func TestBuilderSwitchesUnavailable(t *testing.T) {
	b := NewBuilder(identity.NewAssigner(identity.NewMemoryStore()), nil)
	snap, _ := b.Build(context.Background(), Inputs{
		Links: []domain.PhysicalLink{
			{Src: domain.PortRef{DatapathID: "1", Port: 2}, Dst: domain.PortRef{DatapathID: "2", Port: 2}},
		},
		Hosts: []domain.HostRecord{
			{MAC: "00:00:00:00:00:01", IP: "10.0.1.1", Attachment: ref("1", 1)},
		},
		Unavailable: []string{"switches"},
	})

	if len(snap.Datapaths) != 0 {
		t.Fatalf("expected no datapaths, got %+v", snap.Datapaths)
	}
	graph := domain.DeriveGraph(snap)
	if len(graph.Edges) != 2 {
		t.Fatalf("expected physical and attachment edges, got %+v", graph.Edges)
	}

	nodes := make(map[string]domain.GraphNode)
	for _, n := range graph.Nodes {
		nodes[n.ID] = n
	}
	for _, e := range graph.Edges {
		if _, ok := nodes[e.From]; !ok {
			t.Errorf("edge %s has dangling source %s", e.ID, e.From)
		}
		if _, ok := nodes[e.To]; !ok {
			t.Errorf("edge %s has dangling target %s", e.ID, e.To)
		}
	}
	for _, id := range []string{"dp:1", "dp:2"} {
		if n := nodes[id]; n.Group != domain.NodeGroupSwitch || n.Label != strings.TrimPrefix(id, "dp:") {
			t.Errorf("unexpected placeholder %+v", n)
		}
	}
}

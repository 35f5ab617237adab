package topology

import (
	"testing"

	"sdnview/internal/domain"
)

func TestRouterClassification(t *testing.T) {
	t.Run("inter-switch link does not make a router", func(t *testing.T) {
		datapaths := []domain.Datapath{dp("7", 1, "s3-to-s4")}
		_, c := newTestClassifier(datapaths)

		if c.IsRouter("7") {
			t.Error("expected datapath 7 not to be a router")
		}
		if !c.IsInfrastructure(domain.PortRef{DatapathID: "7", Port: 1}) {
			t.Error("expected s3-to-s4 to be infrastructure")
		}
	})

	t.Run("vtep port makes a router", func(t *testing.T) {
		datapaths := []domain.Datapath{dp("9", 1, "vxlan0", 2, "router1-link", 3, "eth3", 4, "")}
		_, c := newTestClassifier(datapaths)

		if !c.IsRouter("9") {
			t.Fatal("expected datapath 9 to be a router")
		}
		for _, port := range []int{1, 2, 3, 4} {
			if !c.IsInfrastructure(domain.PortRef{DatapathID: "9", Port: port}) {
				t.Errorf("expected router port %d to be infrastructure", port)
			}
		}
	})

	t.Run("configured router without vtep port", func(t *testing.T) {
		datapaths := []domain.Datapath{dp("4", 1, "eth1")}
		_, c := newTestClassifier(datapaths, "4")

		if !c.IsRouter("4") {
			t.Error("expected configured datapath to be a router")
		}
	})

	t.Run("router set is sorted", func(t *testing.T) {
		routers := ClassifyRouters([]domain.Datapath{dp("10", 1, "vxlan0"), dp("2", 1, "vxlan0")}, []string{"9", "2"}, nil)
		want := []string{"2", "9", "10"}
		if len(routers) != len(want) {
			t.Fatalf("expected %v, got %v", want, routers)
		}
		for i := range want {
			if routers[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, routers)
			}
		}
	})
}

func TestMatchInfraPattern(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		infra   bool
		pattern string
	}{
		{"inter-switch", "s3-to-s4", true, "inter-switch link"},
		{"router link", "router1-link", true, "router link"},
		{"lan port", "LAN2", true, "router link"},
		{"tunnel", "vxlan0", true, "tunnel port"},
		{"gre tunnel", "gre1", true, "tunnel port"},
		{"bare gre", "gre", true, "tunnel port"},
		{"geneve tunnel", "geneve-0", true, "tunnel port"},
		{"stt tunnel", "stt_2", true, "tunnel port"},
		{"vxlan prefix", "vxlantun", true, "tunnel port"},
		{"gre lookalike", "green-eth0", false, ""},
		{"stt lookalike", "sttest", false, ""},
		{"geneve lookalike", "genevelab", false, ""},
		{"tunnel system", "vxlan_sys_4789", true, "tunnel system port"},
		{"local bridge", "br-int", true, "datapath local port"},
		{"ovs bridge", "ovs-br1", true, "datapath local port"},
		{"patch", "patch-tun", true, "patch port"},
		{"host veth", "peer_h3", false, ""},
		{"plain", "eth1", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, ok := MatchInfraPattern(tt.port)
			if ok != tt.infra {
				t.Fatalf("MatchInfraPattern(%q) = %v, want %v", tt.port, ok, tt.infra)
			}
			if pattern != tt.pattern {
				t.Errorf("expected pattern %q, got %q", tt.pattern, pattern)
			}
		})
	}
}

func TestIsGhost(t *testing.T) {
	datapaths := []domain.Datapath{
		dp("9", 1, "vxlan0", 3, "eth3"),
		dp("2", 1, "s2-to-s1", 5, "peer_h3", 6, "green-eth0"),
	}
	_, c := newTestClassifier(datapaths)

	tests := []struct {
		name  string
		rec   domain.HostRecord
		ghost bool
	}{
		{"attached to router", domain.HostRecord{IP: "10.0.1.5", Attachment: ref("9", 3)}, true},
		{"infra port without ip", domain.HostRecord{MAC: "aa", Attachment: ref("2", 1)}, true},
		{"infra port with ip", domain.HostRecord{MAC: "aa", IP: "10.0.1.9", Attachment: ref("2", 1)}, false},
		{"host port without ip", domain.HostRecord{MAC: "aa", Attachment: ref("2", 5)}, false},
		{"tunnel lookalike without ip", domain.HostRecord{MAC: "aa", Attachment: ref("2", 6)}, false},
		{"unnamed port without ip", domain.HostRecord{MAC: "aa", Attachment: ref("2", 8)}, false},
		{"no attachment", domain.HostRecord{IP: "10.0.1.3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsGhost(tt.rec); got != tt.ghost {
				t.Errorf("IsGhost() = %v, want %v", got, tt.ghost)
			}
		})
	}
}

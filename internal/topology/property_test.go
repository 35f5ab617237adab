package topology

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"sdnview/internal/domain"
	"sdnview/internal/identity"
)

var portVocabulary = []string{
	"", "peer_h1", "h2-eth0", "s1-to-s2", "router1-link", "lan1",
	"vxlan0", "vxlan_sys_4789", "br-int", "patch-tun", "veth-h3", "eth1",
}

// topologyFrom turns generated vocabulary picks into a small fixture: three
// datapaths with ports drawn round-robin, and one host record per pick.
func topologyFrom(picks []int, hostPicks []int) Inputs {
	in := Inputs{}
	for d := 1; d <= 3; d++ {
		in.Switches = append(in.Switches, domain.Datapath{ID: fmt.Sprint(d)})
	}
	for i, p := range picks {
		d := i % 3
		in.Switches[d].Ports = append(in.Switches[d].Ports, domain.Port{
			DatapathID: in.Switches[d].ID,
			Index:      i + 1,
			Name:       portVocabulary[p%len(portVocabulary)],
		})
	}
	for i, p := range hostPicks {
		rec := domain.HostRecord{
			MAC:        fmt.Sprintf("00:00:00:00:01:%02x", i%256),
			Attachment: ref(fmt.Sprint(p%3+1), p%(len(picks)+1)+1),
		}
		if p%2 == 0 {
			rec.IP = fmt.Sprintf("10.0.1.%d", i%250+1)
		}
		in.Hosts = append(in.Hosts, rec)
	}
	return in
}

func TestClassificationProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	picks := gen.SliceOf(gen.IntRange(0, len(portVocabulary)-1))
	hostPicks := gen.SliceOf(gen.IntRange(0, 64))

	properties.Property("unnamed ports on switches are never infrastructure", prop.ForAll(
		func(p []int) bool {
			in := topologyFrom(p, nil)
			_, classifier := newTestClassifier(in.Switches)
			for _, dp := range in.Switches {
				if classifier.IsRouter(dp.ID) {
					continue
				}
				for _, port := range dp.Ports {
					if port.Name == "" && classifier.IsInfrastructure(port.Ref()) {
						return false
					}
				}
			}
			return true
		},
		picks,
	))

	properties.Property("every router port is infrastructure", prop.ForAll(
		func(p []int) bool {
			in := topologyFrom(p, nil)
			_, classifier := newTestClassifier(in.Switches, "2")
			for _, dp := range in.Switches {
				if !classifier.IsRouter(dp.ID) {
					continue
				}
				for _, port := range dp.Ports {
					if !classifier.IsInfrastructure(port.Ref()) {
						return false
					}
				}
			}
			return true
		},
		picks,
	))

	properties.Property("merged hosts are never ghosts", prop.ForAll(
		func(p []int, h []int) bool {
			in := topologyFrom(p, h)
			index, classifier := newTestClassifier(in.Switches)
			hosts, _ := MergeHosts(in.Hosts, nil, index, classifier)
			for _, host := range hosts {
				if classifier.IsRouter(host.Attachment.DatapathID) {
					return false
				}
				if classifier.IsInfrastructure(host.Attachment) && host.IP == "" {
					return false
				}
			}
			return true
		},
		picks,
		hostPicks,
	))

	properties.Property("fresh builds are deterministic", prop.ForAll(
		func(p []int, h []int) bool {
			in := topologyFrom(p, h)
			ctx := context.Background()
			a, _ := NewBuilder(identity.NewAssigner(identity.NewMemoryStore()), nil).Build(ctx, in)
			b, _ := NewBuilder(identity.NewAssigner(identity.NewMemoryStore()), nil).Build(ctx, in)
			return reflect.DeepEqual(a.Labels, b.Labels) &&
				reflect.DeepEqual(a.Hosts, b.Hosts) &&
				reflect.DeepEqual(a.Links, b.Links) &&
				reflect.DeepEqual(a.Routers, b.Routers)
		},
		picks,
		hostPicks,
	))

	properties.TestingRun(t)
}

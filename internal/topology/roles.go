package topology

import (
	"slices"
	"strings"

	"sdnview/internal/domain"
)

// DefaultVTEPMarkers are the port-name prefixes that mark a tunnel endpoint
var DefaultVTEPMarkers = []string{"vxlan"}

// RouterSet is the sorted set of datapath identifiers classified as routers
type RouterSet []string

// Contains reports whether dpid is a router
func (rs RouterSet) Contains(dpid string) bool {
	_, found := slices.BinarySearchFunc(rs, dpid, domain.CompareDatapathIDs)
	return found
}

// ClassifyRouters decides, per datapath, router versus switch. A datapath is
// a router when it appears in the router configuration or when one of its
// ports is named with a VTEP marker prefix. Configured routers are included
// even when absent from the inventory.
func ClassifyRouters(datapaths []domain.Datapath, configured []string, markers []string) RouterSet {
	if len(markers) == 0 {
		markers = DefaultVTEPMarkers
	}

	seen := make(map[string]struct{})
	var routers RouterSet

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		routers = append(routers, id)
	}

	for _, id := range configured {
		add(id)
	}

	for _, dp := range datapaths {
		if hasVTEPPort(dp, markers) {
			add(dp.ID)
		}
	}

	slices.SortFunc(routers, domain.CompareDatapathIDs)
	return routers
}

func hasVTEPPort(dp domain.Datapath, markers []string) bool {
	for _, p := range dp.Ports {
		name := strings.ToLower(p.Name)
		for _, m := range markers {
			if m != "" && strings.HasPrefix(name, strings.ToLower(m)) {
				return true
			}
		}
	}
	return false
}

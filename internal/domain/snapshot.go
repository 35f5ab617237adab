package domain

import (
	"slices"
	"time"
)

// Snapshot is the immutable observed model produced by one poll
type Snapshot struct {
	ID          string            `json:"id"`
	TakenAt     time.Time         `json:"taken_at"`
	Datapaths   []Datapath        `json:"datapaths"`
	Routers     []string          `json:"routers"`
	Labels      map[string]string `json:"labels"`
	Hosts       []Host            `json:"hosts"`
	Links       []Link            `json:"links"`
	Unavailable []string          `json:"unavailable,omitempty"`
}

// IsRouter reports whether the datapath was classified as a router
func (s *Snapshot) IsRouter(dpid string) bool {
	_, found := slices.BinarySearchFunc(s.Routers, dpid, CompareDatapathIDs)
	return found
}

// DisplayLabel returns the datapath's label, falling back to the raw identifier
func (s *Snapshot) DisplayLabel(dpid string) string {
	if label, ok := s.Labels[dpid]; ok && label != "" {
		return label
	}
	return dpid
}

// MissingDatapaths returns the sorted datapath IDs that links reference but
// the inventory lacks, as happens when the switch listing is unavailable
func (s *Snapshot) MissingDatapaths() []string {
	known := make(map[string]struct{}, len(s.Datapaths))
	for _, dp := range s.Datapaths {
		known[dp.ID] = struct{}{}
	}
	var missing []string
	for _, link := range s.Links {
		for _, e := range []Endpoint{link.From, link.To} {
			if e.Kind != EndpointDatapath {
				continue
			}
			if _, ok := known[e.ID]; ok {
				continue
			}
			known[e.ID] = struct{}{}
			missing = append(missing, e.ID)
		}
	}
	slices.SortFunc(missing, CompareDatapathIDs)
	return missing
}

// Host returns the host with the given ID
func (s *Snapshot) Host(id string) (Host, bool) {
	for _, h := range s.Hosts {
		if h.ID == id {
			return h, true
		}
	}
	return Host{}, false
}

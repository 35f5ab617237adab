package topology

import (
	"slices"
	"strings"

	"sdnview/internal/domain"
)

// IndexEntry is one named port of the index
type IndexEntry struct {
	Name string // lower-cased
	Ref  domain.PortRef
}

// PortIndex holds read-only lookups over one snapshot of the switch inventory
type PortIndex struct {
	byName  map[string]domain.PortRef
	byRef   map[domain.PortRef]string
	entries []IndexEntry
}

// NewPortIndex builds the index. Ports are visited by datapath identifier,
// then port index, so when names collide the last port in that order wins.
func NewPortIndex(datapaths []domain.Datapath) *PortIndex {
	idx := &PortIndex{
		byName: make(map[string]domain.PortRef),
		byRef:  make(map[domain.PortRef]string),
	}

	for _, dp := range datapaths {
		for _, p := range dp.Ports {
			name := strings.ToLower(strings.TrimSpace(p.Name))
			if name == "" {
				continue
			}
			ref := domain.PortRef{DatapathID: dp.ID, Port: p.Index}
			idx.entries = append(idx.entries, IndexEntry{Name: name, Ref: ref})
		}
	}

	slices.SortStableFunc(idx.entries, func(a, b IndexEntry) int {
		return domain.ComparePortRefs(a.Ref, b.Ref)
	})

	for _, e := range idx.entries {
		idx.byName[e.Name] = e.Ref
		idx.byRef[e.Ref] = e.Name
	}

	return idx
}

// Lookup resolves a port name (case-insensitive) to its reference
func (idx *PortIndex) Lookup(name string) (domain.PortRef, bool) {
	ref, ok := idx.byName[strings.ToLower(name)]
	return ref, ok
}

// Name returns the lower-cased name of a port, or "" when unnamed
func (idx *PortIndex) Name(ref domain.PortRef) string {
	return idx.byRef[ref]
}

// Entries returns every named port ordered by datapath, then port index
func (idx *PortIndex) Entries() []IndexEntry {
	return idx.entries
}

// Len returns the number of named ports
func (idx *PortIndex) Len() int {
	return len(idx.entries)
}

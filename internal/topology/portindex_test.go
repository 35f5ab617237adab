package topology

import (
	"testing"

	"sdnview/internal/domain"
)

func TestPortIndex(t *testing.T) {
	index := NewPortIndex([]domain.Datapath{
		dp("2", 5, "Peer_H3", 1, "s2-to-s1", 7, ""),
		dp("1", 1, "s1-to-s2"),
	})

	t.Run("lower-cases names", func(t *testing.T) {
		r, ok := index.Lookup("peer_h3")
		if !ok {
			t.Fatal("expected peer_h3 to be indexed")
		}
		if r != (domain.PortRef{DatapathID: "2", Port: 5}) {
			t.Errorf("unexpected ref %v", r)
		}
	})

	t.Run("excludes unnamed ports", func(t *testing.T) {
		if index.Len() != 3 {
			t.Errorf("expected 3 named ports, got %d", index.Len())
		}
		if name := index.Name(domain.PortRef{DatapathID: "2", Port: 7}); name != "" {
			t.Errorf("expected unnamed port, got %q", name)
		}
	})

	t.Run("entries in datapath then port order", func(t *testing.T) {
		entries := index.Entries()
		want := []string{"s1-to-s2", "s2-to-s1", "peer_h3"}
		for i, e := range entries {
			if e.Name != want[i] {
				t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Name)
			}
		}
	})

	t.Run("last write wins on collisions", func(t *testing.T) {
		idx := NewPortIndex([]domain.Datapath{
			dp("3", 1, "eth0"),
			dp("1", 4, "eth0"),
		})
		r, _ := idx.Lookup("eth0")
		if r.DatapathID != "3" {
			t.Errorf("expected the last port in index order (dp 3), got %v", r)
		}
	})
}

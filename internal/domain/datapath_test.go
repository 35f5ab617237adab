package domain

import (
	"slices"
	"testing"
)

func TestCompareDatapathIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"numeric order", "2", "10", -1},
		{"equal numeric", "7", "7", 0},
		{"leading zero before bare", "07", "7", -1},
		{"bare after leading zero", "7", "07", 1},
		{"numeric before opaque", "99", "abc", -1},
		{"opaque after numeric", "abc", "1", 1},
		{"lexicographic opaque", "abc", "abd", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareDatapathIDs(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareDatapathIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortDatapathIDs(t *testing.T) {
	ids := []string{"10", "br-x", "9", "1", "a"}
	slices.SortFunc(ids, CompareDatapathIDs)

	want := []string{"1", "9", "10", "a", "br-x"}
	if !slices.Equal(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestComparePortRefs(t *testing.T) {
	a := PortRef{DatapathID: "2", Port: 5}
	b := PortRef{DatapathID: "2", Port: 1}
	c := PortRef{DatapathID: "10", Port: 1}

	if ComparePortRefs(a, b) <= 0 {
		t.Error("expected higher port index to sort later on the same datapath")
	}
	if ComparePortRefs(a, c) >= 0 {
		t.Error("expected datapath order to take precedence over port index")
	}
}

func TestNameFromIP(t *testing.T) {
	if got := NameFromIP("10.0.1.5"); got != "host-10-0-1-5" {
		t.Errorf("expected host-10-0-1-5, got %s", got)
	}
}

func TestHostID(t *testing.T) {
	if got := HostID("AA:BB:CC:00:00:01", "h1"); got != "aa:bb:cc:00:00:01" {
		t.Errorf("expected lower-cased MAC, got %s", got)
	}
	if got := HostID("", "h1"); got != "host:h1" {
		t.Errorf("expected name token identity, got %s", got)
	}
}

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdnview/internal/domain"
)

// flakyStore fails the first n saves, then delegates
type flakyStore struct {
	*MemoryStore
	failures int
}

func (f *flakyStore) SaveRouterLabel(ctx context.Context, label domain.RouterLabel) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.MemoryStore.SaveRouterLabel(ctx, label)
}

func switchDP(id string, names ...string) domain.Datapath {
	dp := domain.Datapath{ID: id}
	for i, n := range names {
		dp.Ports = append(dp.Ports, domain.Port{DatapathID: id, Index: i + 1, Name: n})
	}
	return dp
}

func TestAssignRoutersInOrder(t *testing.T) {
	a := NewAssigner(NewMemoryStore())
	got, err := a.Assign(context.Background(), []string{"20", "3", "100", "3"}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"3": "router1", "20": "router2", "100": "router3"}, got.Labels)
	require.Len(t, got.NewRouters, 3)
	assert.Equal(t, 1, got.NewRouters[0].Seq)
}

func TestAssignIsDeterministic(t *testing.T) {
	routers := []string{"9", "4", "7"}
	a, err := NewAssigner(NewMemoryStore()).Assign(context.Background(), routers, nil)
	require.NoError(t, err)
	b, err := NewAssigner(NewMemoryStore()).Assign(context.Background(), []string{"7", "9", "4"}, nil)
	require.NoError(t, err)

	assert.Equal(t, a.Labels, b.Labels)
}

func TestLabelsAreSticky(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := NewAssigner(store)
	_, err := first.Assign(ctx, []string{"5"}, nil)
	require.NoError(t, err)

	// restart: a new assigner over the same store
	second := NewAssigner(store)
	got, err := second.Assign(ctx, []string{"2", "5"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "router1", got.Labels["5"])
	assert.Equal(t, "router2", got.Labels["2"], "expected new router to take the next counter value")
	require.Len(t, got.NewRouters, 1)
	assert.Equal(t, "2", got.NewRouters[0].DatapathID)
}

func TestLabelsNeverReused(t *testing.T) {
	ctx := context.Background()
	a := NewAssigner(NewMemoryStore())

	_, err := a.Assign(ctx, []string{"1", "2"}, nil)
	require.NoError(t, err)

	// router 1 vanishes, a new router appears
	got, err := a.Assign(ctx, []string{"2", "3"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "router3", got.Labels["3"])
	assert.Equal(t, "router1", got.Labels["1"], "expected absent router to keep its label")
}

func TestFailedSaveLeavesRouterUnlabeled(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), failures: 1}
	a := NewAssigner(store)

	got, err := a.Assign(ctx, []string{"1", "2"}, nil)
	require.Error(t, err)
	_, labeled := got.Labels["1"]
	assert.False(t, labeled, "expected router 1 to stay unlabeled")
	assert.Equal(t, "router1", got.Labels["2"], "counter must only advance on a successful save")

	got, err = a.Assign(ctx, []string{"1", "2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "router2", got.Labels["1"])
}

func TestConflictingLabelIsSkipped(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	// another writer took router1 without the counter moving
	require.NoError(t, store.SaveRouterLabel(ctx, domain.RouterLabel{DatapathID: "99", Label: "router1", Seq: 0}))

	a := NewAssigner(store)
	got, err := a.Assign(ctx, []string{"1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "router2", got.Labels["1"])
}

func TestSwitchLabels(t *testing.T) {
	datapaths := []domain.Datapath{
		switchDP("1", "peer_h1", "s1-to-s2"),
		switchDP("2", "sw2-to-s1"),
		switchDP("3", "eth0"),
		switchDP("4", "s1-to-s3"),
		switchDP("5", "router1-to-s2"),
		switchDP("6", "vxlan0", "s6-to-s1"),
	}

	got, err := NewAssigner(NewMemoryStore()).Assign(context.Background(), []string{"6"}, datapaths)
	require.NoError(t, err)

	assert.Equal(t, "s1", got.Labels["1"])
	assert.Equal(t, "s2", got.Labels["2"])
	assert.NotContains(t, got.Labels, "3")
	assert.NotContains(t, got.Labels, "4", "duplicate switch label must be dropped")
	assert.NotContains(t, got.Labels, "5", "router prefix is not switch-like")
	assert.Equal(t, "router1", got.Labels["6"], "router label takes precedence")
}

func TestInferSwitchLabel(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
		want  string
		ok    bool
	}{
		{"plain", []string{"s3-to-s1"}, "s3", true},
		{"switch prefix", []string{"switch04-to-s1"}, "s4", true},
		{"ovs prefix", []string{"ovs7-to-ovs8"}, "s7", true},
		{"first usable by index", []string{"eth0", "s9-to-s1", "s2-to-s1"}, "s9", true},
		{"no pattern", []string{"eth0", "peer_h1"}, "", false},
		{"host prefix rejected", []string{"h1-to-s1"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InferSwitchLabel(switchDP("1", tt.ports...))
			if ok != tt.ok || got != tt.want {
				t.Errorf("InferSwitchLabel() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRouterLabelsSortedBySeq(t *testing.T) {
	a := NewAssigner(NewMemoryStore())
	_, err := a.Assign(context.Background(), []string{"30", "10", "20"}, nil)
	require.NoError(t, err)

	labels := a.RouterLabels()
	require.Len(t, labels, 3)
	for i, l := range labels {
		assert.Equal(t, i+1, l.Seq)
	}
	assert.Equal(t, "10", labels[0].DatapathID)
}

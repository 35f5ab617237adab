package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"sdnview/internal/domain"
)

// RouterLabelPrefix is prepended to the router counter value
const RouterLabelPrefix = "router"

// maxConflictRetries bounds how far a conflicting counter is skipped ahead
const maxConflictRetries = 16

var (
	linkNameRe     = regexp.MustCompile(`^([a-z]+)([0-9]+)-to-[a-z0-9_.]+$`)
	switchPrefixes = map[string]bool{"s": true, "sw": true, "switch": true, "ovs": true, "br": true}
)

// Assignment is the labeling of one pass
type Assignment struct {
	// Labels maps datapath identifier to display label; unlabeled switches are absent
	Labels map[string]string
	// NewRouters lists the router labels introduced by this pass
	NewRouters []domain.RouterLabel
}

// Assigner maintains the persistent IdentityMap. It is safe for concurrent
// use; each Assign is a single read-modify-write of the map.
type Assigner struct {
	mu     sync.Mutex
	store  Store
	loaded bool
	labels map[string]domain.RouterLabel // dpid -> label
	taken  map[string]string             // label -> dpid
	seq    int
	now    func() time.Time
}

// NewAssigner creates an assigner backed by store
func NewAssigner(store Store) *Assigner {
	return &Assigner{
		store:  store,
		labels: make(map[string]domain.RouterLabel),
		taken:  make(map[string]string),
		now:    time.Now,
	}
}

// Load reads the persisted map. It runs at most once; Assign calls it
// if it has not run yet.
func (a *Assigner) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked(ctx)
}

func (a *Assigner) loadLocked(ctx context.Context) error {
	if a.loaded {
		return nil
	}

	labels, seq, err := a.store.LoadRouterLabels(ctx)
	if err != nil {
		return fmt.Errorf("load router labels: %w", err)
	}

	for _, l := range labels {
		a.labels[l.DatapathID] = l
		a.taken[l.Label] = l.DatapathID
		if l.Seq > seq {
			seq = l.Seq
		}
	}
	a.seq = seq
	a.loaded = true

	slog.Info("loaded router identities", "count", len(labels), "counter", seq)
	return nil
}

// Assign labels every router in routers that has no label yet, in sorted
// order, and infers switch labels for the remaining datapaths. A router whose
// label cannot be persisted stays unlabeled for this pass; the returned error
// reports it while the rest of the assignment is still usable.
func (a *Assigner) Assign(ctx context.Context, routers []string, datapaths []domain.Datapath) (Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := Assignment{Labels: make(map[string]string)}
	if err := a.loadLocked(ctx); err != nil {
		return result, err
	}

	sorted := slices.Clone(routers)
	slices.SortFunc(sorted, domain.CompareDatapathIDs)
	sorted = slices.Compact(sorted)

	var errs []error
	for _, dpid := range sorted {
		if _, ok := a.labels[dpid]; ok {
			continue
		}
		label, err := a.assignRouter(ctx, dpid)
		if err != nil {
			errs = append(errs, fmt.Errorf("label router %s: %w", dpid, err))
			slog.Error("failed to persist router label", "dpid", dpid, "error", err)
			continue
		}
		result.NewRouters = append(result.NewRouters, label)
		slog.Info("assigned router label", "dpid", dpid, "label", label.Label)
	}

	for dpid, l := range a.labels {
		result.Labels[dpid] = l.Label
	}

	used := make(map[string]bool, len(result.Labels))
	for _, l := range result.Labels {
		used[l] = true
	}

	ordered := slices.Clone(datapaths)
	slices.SortFunc(ordered, func(x, y domain.Datapath) int {
		return domain.CompareDatapathIDs(x.ID, y.ID)
	})
	for _, dp := range ordered {
		if _, labeled := result.Labels[dp.ID]; labeled {
			continue
		}
		label, ok := InferSwitchLabel(dp)
		if !ok || used[label] {
			continue
		}
		used[label] = true
		result.Labels[dp.ID] = label
	}

	return result, errors.Join(errs...)
}

// assignRouter persists the next unused sequential label for dpid
func (a *Assigner) assignRouter(ctx context.Context, dpid string) (domain.RouterLabel, error) {
	seq := a.seq
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		seq++
		name := fmt.Sprintf("%s%d", RouterLabelPrefix, seq)
		if _, taken := a.taken[name]; taken {
			continue
		}

		label := domain.RouterLabel{
			DatapathID: dpid,
			Label:      name,
			Seq:        seq,
			AssignedAt: a.now().UTC(),
		}
		err := a.store.SaveRouterLabel(ctx, label)
		if errors.Is(err, ErrLabelConflict) {
			continue
		}
		if err != nil {
			return domain.RouterLabel{}, err
		}

		a.seq = seq
		a.labels[dpid] = label
		a.taken[name] = dpid
		return label, nil
	}
	return domain.RouterLabel{}, ErrLabelConflict
}

// RouterLabels returns the IdentityMap sorted by counter value
func (a *Assigner) RouterLabels() []domain.RouterLabel {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.RouterLabel, 0, len(a.labels))
	for _, l := range a.labels {
		out = append(out, l)
	}
	slices.SortFunc(out, func(x, y domain.RouterLabel) int {
		return x.Seq - y.Seq
	})
	return out
}

// InferSwitchLabel derives a short label from a "<id>-to-<id>" port name
// whose local fragment carries a switch-like prefix, normalised to s<N>.
// Ports are scanned by index; the first usable name wins.
func InferSwitchLabel(dp domain.Datapath) (string, bool) {
	ports := slices.Clone(dp.Ports)
	slices.SortFunc(ports, func(x, y domain.Port) int {
		return x.Index - y.Index
	})

	for _, p := range ports {
		m := linkNameRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(p.Name)))
		if m == nil || !switchPrefixes[m[1]] {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		return fmt.Sprintf("s%d", n), true
	}
	return "", false
}

// Package collector fans the controller read queries out concurrently and
// waits for all of them. A source that fails or exceeds its timeout is
// replaced by an empty result and recorded as unavailable.
package collector

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sdnview/internal/controller"
	"sdnview/internal/domain"
	"sdnview/internal/topology"
)

// Source names one read feed
type Source string

const (
	SourceSwitches     Source = "switches"
	SourceRouterConfig Source = "router_config"
	SourceLinks        Source = "links"
	SourceHosts        Source = "hosts"
	SourceHostMap      Source = "hostmap"
	SourcePairs        Source = "pairs"
)

// ObserveSources are the feeds a visualization pass needs
var ObserveSources = []Source{SourceSwitches, SourceRouterConfig, SourceLinks, SourceHosts, SourceHostMap}

// ReconcileSources are the feeds a reconciliation pass needs
var ReconcileSources = []Source{SourceSwitches, SourceRouterConfig, SourceHostMap, SourcePairs}

// Reader is the read side of the controller
type Reader interface {
	Switches(ctx context.Context) ([]domain.Datapath, error)
	RouterConfig(ctx context.Context) ([]string, error)
	Links(ctx context.Context) ([]domain.PhysicalLink, error)
	Hosts(ctx context.Context) ([]domain.HostRecord, error)
	HostMap(ctx context.Context) ([]domain.Registration, error)
	Pairs(ctx context.Context) ([]domain.Pair, error)
}

// Availability records which sources could not be read in a pass
type Availability struct {
	Unavailable []Source          `json:"unavailable,omitempty"`
	Errors      map[Source]string `json:"errors,omitempty"`
}

// Available reports whether s was read successfully
func (a Availability) Available(s Source) bool {
	return !slices.Contains(a.Unavailable, s)
}

// Names returns the unavailable sources as strings
func (a Availability) Names() []string {
	out := make([]string, len(a.Unavailable))
	for i, s := range a.Unavailable {
		out[i] = string(s)
	}
	return out
}

// Result is the raw material read in one pass
type Result struct {
	Switches     []domain.Datapath
	RouterConfig []string
	Links        []domain.PhysicalLink
	Hosts        []domain.HostRecord
	HostMap      []domain.Registration
	Pairs        []domain.Pair
	Availability Availability
}

// Inputs converts the result into snapshot builder inputs
func (r *Result) Inputs() topology.Inputs {
	return topology.Inputs{
		Switches:     r.Switches,
		RouterConfig: r.RouterConfig,
		Links:        r.Links,
		Hosts:        r.Hosts,
		HostMap:      controller.HostRecords(r.HostMap),
		Unavailable:  r.Availability.Names(),
	}
}

// Collector reads sources from a controller
type Collector struct {
	reader  Reader
	timeout time.Duration
}

// New creates a collector bounding each source by timeout
func New(reader Reader, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = controller.DefaultTimeout
	}
	return &Collector{reader: reader, timeout: timeout}
}

// Collect reads the given sources concurrently. It never fails; a source
// error only shows up in the Availability of the result.
func (c *Collector) Collect(ctx context.Context, sources ...Source) *Result {
	res := &Result{}
	var (
		mu   sync.Mutex
		errs = make(map[Source]string)
	)

	var g errgroup.Group
	for _, src := range sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			if err := c.read(sctx, src, res, &mu); err != nil {
				mu.Lock()
				errs[src] = err.Error()
				mu.Unlock()
				slog.Warn("source unavailable", "source", string(src), "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, src := range sources {
		if _, failed := errs[src]; failed {
			res.Availability.Unavailable = append(res.Availability.Unavailable, src)
		}
	}
	slices.Sort(res.Availability.Unavailable)
	if len(errs) > 0 {
		res.Availability.Errors = errs
	}

	return res
}

func (c *Collector) read(ctx context.Context, src Source, res *Result, mu *sync.Mutex) error {
	switch src {
	case SourceSwitches:
		return store(ctx, c.reader.Switches, &res.Switches, mu)
	case SourceRouterConfig:
		return store(ctx, c.reader.RouterConfig, &res.RouterConfig, mu)
	case SourceLinks:
		return store(ctx, c.reader.Links, &res.Links, mu)
	case SourceHosts:
		return store(ctx, c.reader.Hosts, &res.Hosts, mu)
	case SourceHostMap:
		return store(ctx, c.reader.HostMap, &res.HostMap, mu)
	case SourcePairs:
		return store(ctx, c.reader.Pairs, &res.Pairs, mu)
	}
	return nil
}

// store runs fetch and assigns its value to dst on success. It returns when
// ctx is done even if fetch does not honour it; a late value is discarded.
func store[T any](ctx context.Context, fetch func(context.Context) (T, error), dst *T, mu *sync.Mutex) error {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fetch(ctx)
		ch <- outcome{v, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return o.err
		}
		mu.Lock()
		*dst = o.v
		mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

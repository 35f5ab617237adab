// Package reconcile drives the controller toward a desired set of host
// registrations and symmetric pairs.
//
// Every pass re-reads controller state and only issues the writes that are
// missing, so running it twice against unchanged state writes nothing the
// second time. Pair installation is additive: pairs outside the desired set
// are never removed.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"sdnview/internal/collector"
	"sdnview/internal/domain"
	"sdnview/internal/topology"
)

// DefaultConcurrency bounds in-flight write calls when unset
const DefaultConcurrency = 4

var (
	// ErrUnresolved is reported for a desired host with no usable attachment
	ErrUnresolved = errors.New("attachment unresolved")
	// ErrUnknownHost is reported for a pair naming a host absent from the desired set
	ErrUnknownHost = errors.New("unknown host")
)

// Write operation names
const (
	OpRegisterHost = "register_host"
	OpAddPair      = "add_pair"
)

// Writer is the write side of the controller
type Writer interface {
	RegisterHost(ctx context.Context, reg domain.Registration) error
	AddPair(ctx context.Context, pair domain.Pair) error
}

// Options tunes an Engine
type Options struct {
	// Concurrency bounds in-flight write calls
	Concurrency int
	// VTEPMarkers are the router port-name prefixes; nil selects the default
	VTEPMarkers []string
	// Policy restricts which couples are installed
	Policy LANPolicy
	// OnWrite observes every write call
	OnWrite func(op string, err error)
}

// Engine reconciles controller state. It keeps nothing across runs.
type Engine struct {
	collector *collector.Collector
	writer    Writer
	opts      Options
}

// New creates an engine reading through c and writing through w
func New(c *collector.Collector, w Writer, opts Options) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Engine{collector: c, writer: w, opts: opts}
}

// Run performs one reconciliation pass. Per-item failures are reported in the
// result; the error is non-nil only when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, desired domain.DesiredState) (*Result, error) {
	res := &Result{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := slog.With("pass_id", res.ID)

	state := e.collector.Collect(ctx, collector.ReconcileSources...)
	res.Availability = state.Availability
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var writes atomic.Int64
	res.Hosts = e.registerHosts(ctx, log, desired, state, &writes)
	res.Pairs, res.Unpaired = e.installPairs(ctx, log, desired, state, &writes)

	res.Writes = int(writes.Load())
	res.FinishedAt = time.Now().UTC()

	log.Info("reconciliation completed",
		"hosts", len(res.Hosts),
		"pairs", len(res.Pairs),
		"writes", res.Writes,
		"failed", res.Failed())

	return res, ctx.Err()
}

func (e *Engine) registerHosts(ctx context.Context, log *slog.Logger, desired domain.DesiredState, state *collector.Result, writes *atomic.Int64) []HostOutcome {
	datapaths := state.Switches
	index := topology.NewPortIndex(datapaths)
	routers := topology.ClassifyRouters(datapaths, state.RouterConfig, e.opts.VTEPMarkers)
	resolver := topology.NewResolver(index)
	resolver.PreferPeer = true

	current := make(map[string]domain.Registration, len(state.HostMap))
	for _, reg := range state.HostMap {
		current[reg.IP] = reg
	}

	outcomes := make([]HostOutcome, len(desired.Hosts))
	p := pool.New().WithMaxGoroutines(e.opts.Concurrency)

	for i, h := range desired.Hosts {
		out := &outcomes[i]
		out.Name, out.IP = h.Name, h.IP

		res := resolver.Resolve(h.Name)
		switch {
		case !res.Found():
			e.fail(out, fmt.Errorf("%w: no port matches %q", ErrUnresolved, h.Name))
			log.Warn("desired host unresolved", "hostname", h.Name, "ip", h.IP)
			continue
		case routers.Contains(res.Ref.DatapathID):
			e.fail(out, fmt.Errorf("%w: %q resolves to router %s", ErrUnresolved, h.Name, res.Ref.DatapathID))
			log.Warn("desired host resolves to a router", "hostname", h.Name, "dpid", res.Ref.DatapathID)
			continue
		}

		ref := res.Ref
		out.Attachment = &ref
		out.PortName = res.PortName

		want := domain.Registration{
			IP:         h.IP,
			Hostname:   h.Name,
			DatapathID: ref.DatapathID,
			Port:       ref.Port,
		}
		if have, ok := current[h.IP]; ok && have.Matches(want) {
			out.Action = HostUnchanged
			continue
		}

		p.Go(func() {
			writes.Add(1)
			err := e.writer.RegisterHost(ctx, want)
			e.observe(OpRegisterHost, err)
			if err != nil {
				e.fail(out, err)
				log.Error("host registration failed", "hostname", want.Hostname, "ip", want.IP, "error", err)
				return
			}
			out.Action = HostRegistered
			log.Info("registered host", "hostname", want.Hostname, "ip", want.IP, "dpid", want.DatapathID, "port", want.Port)
		})
	}
	p.Wait()

	return outcomes
}

func (e *Engine) installPairs(ctx context.Context, log *slog.Logger, desired domain.DesiredState, state *collector.Result, writes *atomic.Int64) ([]PairOutcome, string) {
	ipByName := make(map[string]string, len(desired.Hosts))
	for _, h := range desired.Hosts {
		ipByName[h.Name] = h.IP
	}

	present := make(map[domain.Pair]struct{}, len(state.Pairs))
	for _, pair := range state.Pairs {
		present[pair] = struct{}{}
	}

	couples, unpaired := SymmetricPairs(desired.Order())
	if unpaired != "" {
		log.Info("odd pair order, middle host left unpaired", "hostname", unpaired)
	}

	outcomes := make([]PairOutcome, 0, 2*len(couples))
	for _, c := range couples {
		a, okA := ipByName[c.A]
		b, okB := ipByName[c.B]
		forward := domain.Pair{Src: a, Dst: b}

		for _, pair := range []domain.Pair{forward, forward.Reverse()} {
			out := PairOutcome{Couple: c, Pair: pair}
			switch {
			case !okA || !okB:
				out.Action = PairFailed
				out.Err = fmt.Errorf("%w in couple %s/%s", ErrUnknownHost, c.A, c.B)
				out.Error = out.Err.Error()
			case !e.opts.Policy.Allows(a, b):
				out.Action = PairPolicySkipped
			default:
				if _, ok := present[pair]; ok {
					out.Action = PairPresent
				}
			}
			outcomes = append(outcomes, out)
		}
	}

	p := pool.New().WithMaxGoroutines(e.opts.Concurrency)
	for i := range outcomes {
		out := &outcomes[i]
		if out.Action != "" {
			continue
		}
		p.Go(func() {
			writes.Add(1)
			err := e.writer.AddPair(ctx, out.Pair)
			e.observe(OpAddPair, err)
			if err != nil {
				e.failPair(out, err)
				log.Error("pair installation failed", "src", out.Pair.Src, "dst", out.Pair.Dst, "error", err)
				return
			}
			out.Action = PairAdded
			log.Info("added pair", "src", out.Pair.Src, "dst", out.Pair.Dst)
		})
	}
	p.Wait()

	return outcomes, unpaired
}

func (e *Engine) fail(out *HostOutcome, err error) {
	out.Action = HostFailed
	out.Err = err
	out.Error = err.Error()
}

func (e *Engine) failPair(out *PairOutcome, err error) {
	out.Action = PairFailed
	out.Err = err
	out.Error = err.Error()
}

func (e *Engine) observe(op string, err error) {
	if e.opts.OnWrite != nil {
		e.opts.OnWrite(op, err)
	}
}

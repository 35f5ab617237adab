// Package probe annotates merged hosts with liveness from an nmap ping scan.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"slices"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"sdnview/internal/domain"
)

// DefaultTimeout bounds a whole scan
const DefaultTimeout = 30 * time.Second

// Prober reports which of a set of addresses answer
type Prober interface {
	Probe(ctx context.Context, ips []string) (map[string]bool, error)
}

// NmapProber runs host discovery only (-sn), no port scan
type NmapProber struct {
	timeout time.Duration
}

// Option configures an NmapProber
type Option func(*NmapProber)

// WithTimeout sets the timeout for the entire scan
func WithTimeout(d time.Duration) Option {
	return func(p *NmapProber) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewNmapProber creates a prober
func NewNmapProber(opts ...Option) *NmapProber {
	p := &NmapProber{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe ping-scans ips. Every valid address gets an entry; addresses nmap did
// not report up are false.
func (p *NmapProber) Probe(ctx context.Context, ips []string) (map[string]bool, error) {
	targets := validTargets(ips)
	if len(targets) == 0 {
		return map[string]bool{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(targets...),
		nmap.WithPingScan(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("ping scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		slog.Debug("nmap warnings", "warnings", *warnings)
	}

	return reachability(result, targets), nil
}

// validTargets keeps unique, parseable addresses in sorted order
func validTargets(ips []string) []string {
	var out []string
	for _, ip := range ips {
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			continue
		}
		out = append(out, addr.String())
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// reachability maps each target to whether the scan reported it up
func reachability(result *nmap.Run, targets []string) map[string]bool {
	out := make(map[string]bool, len(targets))
	for _, t := range targets {
		out[t] = false
	}
	if result == nil {
		return out
	}

	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}
		for _, addr := range host.Addresses {
			if _, wanted := out[addr.Addr]; wanted {
				out[addr.Addr] = true
			}
		}
	}
	return out
}

// Annotate returns a copy of hosts with Reachable set from reach. Hosts whose
// address was not probed keep an unknown reachability.
func Annotate(hosts []domain.Host, reach map[string]bool) []domain.Host {
	out := slices.Clone(hosts)
	for i := range out {
		if up, ok := reach[out[i].IP]; ok {
			out[i].Reachable = &up
		}
	}
	return out
}

// Addresses returns the IPs of hosts that have one
func Addresses(hosts []domain.Host) []string {
	var out []string
	for _, h := range hosts {
		if h.IP != "" {
			out = append(out, h.IP)
		}
	}
	return out
}

// Package poller runs observe passes on a fixed interval.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is used when no valid interval is configured
const DefaultInterval = 5 * time.Second

// PassFunc runs one pass
type PassFunc func(ctx context.Context) error

// Poller calls a PassFunc immediately on start and then on every tick.
// Stopping it is the only way to cancel a pass in flight.
type Poller struct {
	mu       sync.Mutex
	pass     PassFunc
	interval time.Duration
	trigger  chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a poller
func New(pass PassFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		slog.Warn("invalid poll interval, using default", "interval", interval, "default", DefaultInterval)
		interval = DefaultInterval
	}
	return &Poller{
		pass:     pass,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Start begins the polling loop. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.run(ctx, "initial")

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping poller")
				return
			case <-ticker.C:
				p.run(ctx, "tick")
			case <-p.trigger:
				p.run(ctx, "trigger")
			}
		}
	}()

	slog.Info("started poller", "interval", p.interval)
}

// Stop cancels the loop and waits for the pass in flight to return
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Trigger requests an immediate pass. Requests made while one is already
// pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context, reason string) {
	if err := p.pass(ctx); err != nil && ctx.Err() == nil {
		slog.Warn("poll pass failed", "reason", reason, "error", err)
	}
}

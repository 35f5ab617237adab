// Package app assembles the sdnview object graph from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"sdnview/internal/collector"
	"sdnview/internal/config"
	"sdnview/internal/controller"
	"sdnview/internal/identity"
	"sdnview/internal/loader"
	"sdnview/internal/metrics"
	"sdnview/internal/probe"
	"sdnview/internal/reconcile"
	"sdnview/internal/repository"
	"sdnview/internal/repository/sqlite"
	"sdnview/internal/service"
)

// App holds the long-lived components shared by the binaries
type App struct {
	Config     *config.Config
	Controller *controller.Client
	Metrics    *metrics.Registry
	Service    *service.TopologyService

	repo repository.Repository
}

// New opens the identity store and wires the controller client, collector,
// reconcile engine and topology service
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	policy, err := reconcile.NewLANPolicy(cfg.Reconcile.LANs)
	if err != nil {
		return nil, fmt.Errorf("reconcile lans: %w", err)
	}

	a := &App{
		Config:     cfg,
		Controller: controller.New(cfg.Controller.URL, cfg.Controller.Timeout.Duration()),
		Metrics:    metrics.NewRegistry(),
	}

	var (
		store   identity.Store
		history repository.RunHistory
	)
	if cfg.Identity.Database == "" {
		slog.Warn("no identity database configured, router labels will not survive a restart")
		store = identity.NewMemoryStore()
	} else {
		repo, err := sqlite.New(cfg.Identity.Database)
		if err != nil {
			return nil, fmt.Errorf("open identity database: %w", err)
		}
		a.repo = repo
		store, history = repo, repo
		slog.Info("identity database opened", "path", cfg.Identity.Database)
	}

	assigner := identity.NewAssigner(store)
	if err := assigner.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load router labels: %w", err)
	}

	coll := collector.New(a.Controller, cfg.Controller.Timeout.Duration())
	engine := reconcile.New(coll, a.Controller, reconcile.Options{
		Concurrency: cfg.Reconcile.Concurrency,
		VTEPMarkers: cfg.Classification.VTEPPrefixes,
		Policy:      policy,
		OnWrite:     a.Metrics.RecordWrite,
	})

	var prober probe.Prober
	if cfg.Probe.Enabled {
		prober = probe.NewNmapProber(probe.WithTimeout(cfg.Probe.Timeout.Duration()))
	}

	a.Service = service.NewTopologyService(service.Deps{
		Collector:   coll,
		Assigner:    assigner,
		Engine:      engine,
		Remover:     a.Controller,
		Prober:      prober,
		History:     history,
		Metrics:     a.Metrics,
		VTEPMarkers: cfg.Classification.VTEPPrefixes,
	})

	return a, nil
}

// LoadDesired reads and validates the configured desired-state file and
// stores it on the service. It is a no-op when no file is configured.
func (a *App) LoadDesired() error {
	path := a.Config.Reconcile.DesiredFile
	if path == "" {
		return nil
	}

	desired, err := loader.LoadYAML(path)
	if err != nil {
		return err
	}
	a.Service.SetDesired(desired)
	slog.Info("desired state loaded", "path", path, "hosts", len(desired.Hosts))
	return nil
}

// Close releases the identity store
func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

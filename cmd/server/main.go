package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sdnview/internal/app"
	"sdnview/internal/config"
	"sdnview/internal/handler"
	"sdnview/internal/hub"
	"sdnview/internal/logging"
	"sdnview/internal/poller"
	"sdnview/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	initConfig := flag.Bool("init-config", false, "write a default config file and exit")
	flag.Parse()

	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	}

	if err := run(*configPath, *addr); err != nil {
		slog.Error("sdnview stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func run(configPath, addrOverride string) error {
	cfg, source, err := loadConfig(configPath)
	if err != nil {
		logging.Setup(slog.LevelInfo)
		return err
	}
	logging.Setup(cfg.Log.SlogLevel())

	if source == "" {
		source = "defaults"
	}
	slog.Info("starting sdnview", "config", source, "summary", cfg.Summary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.LoadDesired(); err != nil {
		slog.Error("failed to load desired state", "path", cfg.Reconcile.DesiredFile, "error", err)
	}

	// SSE fan-out of service events
	sseHub := hub.New()
	go sseHub.Run(ctx)
	go sseHub.Forward(ctx, a.Service.EventBus())

	p := poller.New(func(ctx context.Context) error {
		_, err := a.Service.Observe(ctx)
		return err
	}, cfg.Poll.Interval.Duration())
	p.Start(ctx)

	if path := cfg.Reconcile.DesiredFile; path != "" {
		w := watcher.New(path, func() {
			if err := a.LoadDesired(); err != nil {
				slog.Warn("desired state reload rejected, keeping previous", "path", path, "error", err)
				return
			}
			if !cfg.Reconcile.OnChange {
				return
			}
			res, err := a.Service.ReconcileStored(ctx)
			if err != nil {
				slog.Error("reconcile after reload failed", "error", err)
				return
			}
			slog.Info("reconciled after reload", "pass_id", res.ID, "writes", res.Writes, "failed", res.Failed())
		})
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("desired state watcher stopped", "path", path, "error", err)
			}
		}()
	}

	topologyHandler := handler.NewTopologyHandler(a.Service)
	topologyHandler.SetDiscoveryTrigger(p)

	listen := cfg.Server.Addr
	if addrOverride != "" {
		listen = addrOverride
	}

	server := &http.Server{
		Addr: listen,
		Handler: handler.Router{
			Topology: topologyHandler,
			Events:   sseHub,
			Metrics:  a.Metrics,
		}.Handler(),
		ReadTimeout: 10 * time.Second,
		// SSE streams are long-lived, so no WriteTimeout
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errCh:
		stop()
		p.Stop()
		return fmt.Errorf("server: %w", err)
	}

	p.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

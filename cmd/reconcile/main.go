// Command reconcile runs a single reconciliation against the controller and
// exits non-zero if any host or pair failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sdnview/internal/app"
	"sdnview/internal/config"
	"sdnview/internal/logging"
	"sdnview/internal/reconcile"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: search standard locations)")
	desiredPath := flag.String("desired", "", "desired-state file (overrides reconcile.desired_file)")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	flag.Parse()

	os.Exit(run(*configPath, *desiredPath, *asJSON))
}

func run(configPath, desiredPath string, asJSON bool) int {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, _, err = config.LoadFromPath(configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		logging.Setup(slog.LevelInfo)
		slog.Error("failed to load config", "error", err)
		return 2
	}
	logging.Setup(cfg.Log.SlogLevel())

	if desiredPath != "" {
		cfg.Reconcile.DesiredFile = desiredPath
	}
	if cfg.Reconcile.DesiredFile == "" {
		slog.Error("no desired state file; set reconcile.desired_file or pass -desired")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return 2
	}
	defer a.Close()

	if err := a.LoadDesired(); err != nil {
		slog.Error("failed to load desired state", "path", cfg.Reconcile.DesiredFile, "error", err)
		return 2
	}

	res, err := a.Service.ReconcileStored(ctx)
	if err != nil {
		slog.Error("reconcile failed", "error", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			slog.Error("failed to encode result", "error", err)
		}
	} else {
		printResult(res)
	}

	if res.Failed() {
		return 1
	}
	return 0
}

func printResult(res *reconcile.Result) {
	for _, h := range res.Hosts {
		line := fmt.Sprintf("host %-12s %-15s %s", h.Name, h.IP, h.Action)
		if h.Attachment != nil {
			line += " at " + h.Attachment.String()
		}
		if h.Error != "" {
			line += ": " + h.Error
		}
		fmt.Println(line)
	}
	for _, p := range res.Pairs {
		line := fmt.Sprintf("pair %s -> %s %s", p.Pair.Src, p.Pair.Dst, p.Action)
		if p.Error != "" {
			line += ": " + p.Error
		}
		fmt.Println(line)
	}
	if res.Unpaired != "" {
		fmt.Printf("unpaired %s\n", res.Unpaired)
	}
	if unavailable := res.Availability.Names(); len(unavailable) > 0 {
		fmt.Printf("unavailable sources: %v\n", unavailable)
	}
	fmt.Printf("writes %d, failed %t\n", res.Writes, res.Failed())
}

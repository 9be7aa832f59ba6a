package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"retailsight/internal/config"
	"retailsight/internal/infrastructure"
	"retailsight/internal/operations"
	"retailsight/internal/services"
	"retailsight/internal/store"
)

func main() {
	pipeline := flag.String("pipeline", "all", "pipeline to run: retail, churn or all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager := operations.NewManager(cfg.Server.RunTimeout, nil, operations.NopBroadcaster{}, logger)
	snapshots := store.NewSnapshots(logger)
	runService := services.NewRunService(cfg, manager, snapshots, logger)

	logger.Info("starting batch run",
		slog.String("pipeline", *pipeline),
		slog.String("output_dir", cfg.Paths.OutputDir))

	infos, err := runService.Execute(ctx, *pipeline)
	for _, info := range infos {
		logger.Info("run finished",
			slog.String("run_id", info.ID),
			slog.String("pipeline", info.Pipeline),
			slog.String("status", string(info.Status)))
	}
	if err != nil {
		logger.Error("batch run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("completed %d pipeline run(s), output in %s\n", len(infos), cfg.Paths.OutputDir)
}

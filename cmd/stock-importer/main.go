package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	stockimporter "github.com/flexbit-dev/flexbit-api/internal/app/stock-importer"
	"github.com/flexbit-dev/flexbit-api/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting stock importer service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := stockimporter.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize importer app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("importer app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("importer app stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bmrengine/internal/infra/bootstrap"
	"bmrengine/internal/infra/bridge"
	"bmrengine/internal/infra/config"
	"bmrengine/internal/infra/obs"
)

var version = "dev"

// bmrbridge answers line-delimited JSON commands on stdin. Logs go to stderr
// so stdout carries replies only.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod", os.Stderr).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, os.Stderr)

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	srv := &bridge.Server{Queries: app.Queries, Stats: app.Stats, Logger: logger, Version: version}
	logger.Info("bridge ready", "version", version, "default_method", cfg.DefaultMethod)
	serveErr := srv.Serve(ctx, os.Stdin, os.Stdout)
	stop()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := app.Worker.Drain(closeCtx); err != nil {
		logger.Warn("final outbox drain failed", "error", err)
	}
	if err := app.Close(closeCtx); err != nil {
		logger.Warn("shutdown cleanup failed", "error", err)
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error("bridge stopped", "error", serveErr)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"travel-search/internal/app"
	"travel-search/internal/config"
	"travel-search/internal/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.New(cfg.App.AppName, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap, cleanup, err := app.Bootstrap(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to bootstrap app")
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Error().Err(err).Msg("cleanup error")
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Error().Err(err).Msg("invalid HTTP port")
		return
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info().Str("addr", addr).Str("env", cfg.App.Environment).Msg("HTTP server listening")
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			lg.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		lg.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
			lg.Error().Err(err).Msg("shutdown error")
		}
	}
}

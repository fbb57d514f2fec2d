package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-auth-gate/internal/config"
	"github.com/goliatone/go-auth-gate/internal/server"
	"github.com/goliatone/go-auth-gate/repository"
	"github.com/goliatone/go-print"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.SlogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "config", print.MaybePrettyJSON(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	profiles := repository.NewProfileRepository(db)
	if err := profiles.Migrate(ctx); err != nil {
		return err
	}

	verifier, closeVerifier, err := server.NewVerifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeVerifier()

	app, err := server.New(server.Options{
		CORSOrigin:    cfg.CORSOrigin,
		Verifier:      verifier,
		VerifyTimeout: cfg.VerifyTimeout,
		Profiles:      profiles,
		Logger:        logger,
		Health: func(ctx context.Context) error {
			return repository.Ping(ctx, db)
		},
		AccessLog: os.Stdout,
	})
	if err != nil {
		return err
	}

	errs := make(chan error, 1)
	go func() {
		errs <- app.Listen(fmt.Sprintf(":%d", cfg.Port))
	}()

	logger.Info("auth gate started", "port", cfg.Port, "verifier", cfg.Verifier)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return err
	}

	logger.Info("auth gate stopped cleanly")
	return nil
}

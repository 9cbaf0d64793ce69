package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oxbow-chat/oxbow/internal/admin"
	"github.com/oxbow-chat/oxbow/internal/app"
	"github.com/oxbow-chat/oxbow/internal/channel"
	"github.com/oxbow-chat/oxbow/internal/command"
	"github.com/oxbow-chat/oxbow/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping admin startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	handler := admin.NewHandler(logger, command.NewRepository(pool), channel.NewRepository(pool))
	srv := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      admin.NewRouter(admin.RouterParams{Logger: logger, Config: cfg, Handler: handler}),
		ReadTimeout:  cfg.AdminReadTimeout,
		WriteTimeout: cfg.AdminWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin api listening", slog.String("addr", cfg.AdminAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

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

	"stickerzip/internal/config"
	"stickerzip/internal/jobs"
	"stickerzip/internal/pipeline"
	"stickerzip/internal/progress"
	"stickerzip/internal/source"
	"stickerzip/internal/telegram"
	"stickerzip/internal/transcode"
	"stickerzip/internal/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	client, err := telegram.NewClient(cfg.BotToken)
	if err != nil {
		logger.Error("could not connect to bot api", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := jobs.NewRegistry(logger)
	registry.StartCleanupLoop(ctx, cfg.CleanupInterval(), cfg.JobTTL())

	resolver := source.NewResolver(client, cfg.MaxItems)
	transcoder := transcode.New(client, &http.Client{Timeout: cfg.FetchTimeout()}, cfg.MaxItemBytes, cfg.JPEGQuality, logger)
	reporter := progress.NewReporter(client, cfg.ProgressEvery, logger)
	orchestrator := pipeline.New(resolver, transcoder, client, reporter, registry, cfg, logger)
	bot := telegram.NewBot(client, orchestrator, logger)

	app := web.NewApp(logger, registry)
	srv := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("admin server started", "addr", cfg.AdminAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server failed", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("bot started", "username", client.Username())
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("bot stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		_ = srv.Close()
	}
	logger.Info("stopped")
}

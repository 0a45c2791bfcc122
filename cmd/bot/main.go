package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"budgetbot/internal/bot"
	"budgetbot/internal/config"
	"budgetbot/internal/service"
	"budgetbot/internal/storage/sqlite"
	"budgetbot/pkg/logging"
)

func main() {
	logging.Setup()
	cfg := config.Load()

	if cfg.TelegramToken == "" {
		slog.Error("TELEGRAM_API_KEY is required")
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	tracker := service.New(store, slog.Default())
	b, err := bot.New(cfg.TelegramToken, tracker, slog.Default())
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Bot stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot stopped")
}

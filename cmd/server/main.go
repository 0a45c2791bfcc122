package main

import (
	"log/slog"
	"net/http"
	"os"

	"budgetbot/internal/api"
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
	server := api.NewServer(tracker, cfg.TelegramToken, cfg.StaticPath, slog.Default())

	slog.Info("API server starting", "address", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server.Handler()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

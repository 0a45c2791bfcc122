// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds every tunable the bot and the API server need.
type Config struct {
	// TelegramToken authenticates the bot and signs WebApp initData checks.
	TelegramToken string

	// DBPath is the SQLite database file.
	DBPath string

	// Addr is the HTTP API listen address.
	Addr string

	// StaticPath is the directory of WebApp assets served by the API.
	StaticPath string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		TelegramToken: os.Getenv("TELEGRAM_API_KEY"),
		DBPath:        getEnv("DB_PATH", "./data/budgetbot.db"),
		Addr:          getEnv("ADDR", ":8080"),
		StaticPath:    getEnv("STATIC_PATH", "./webapp"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

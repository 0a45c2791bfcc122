// Package api exposes the tracker as a JSON-over-HTTP API for the Telegram
// WebApp. Every /api endpoint authenticates a WebApp initData payload and
// resolves the caller's identity before touching the core.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"budgetbot/internal/service"
)

// Server bundles the tracker with the transport concerns: initData
// authentication, static WebApp assets, metrics and health.
type Server struct {
	tracker   *service.Tracker
	botToken  string
	staticDir string
	logger    *slog.Logger
}

// NewServer creates an API server. staticDir may be empty to disable static
// file serving.
func NewServer(tracker *service.Tracker, botToken, staticDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{tracker: tracker, botToken: botToken, staticDir: staticDir, logger: logger}
}

// Handler builds the routed and middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/init", s.handleInit)
	mux.HandleFunc("/api/transaction", s.handleAddTransaction)
	mux.HandleFunc("/api/transaction/update", s.handleUpdateTransaction)
	mux.HandleFunc("/api/transactions", s.handleRecentTransactions)
	mux.HandleFunc("/api/transactions/list", s.handleListTransactions)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/summary/range", s.handleRangeSummary)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/summary", s.handleCategorySummary)
	mux.HandleFunc("/api/invite", s.handleInvite)
	mux.HandleFunc("/api/join", s.handleJoin)
	mux.HandleFunc("/api/leave", s.handleLeave)
	mux.HandleFunc("/api/kick", s.handleKick)
	mux.HandleFunc("/api/users", s.handleUsers)
	mux.HandleFunc("/api/budget/switch", s.handleSwitch)
	mux.HandleFunc("/api/plans", s.handleListPlans)
	mux.HandleFunc("/api/plan", s.handleCreatePlan)
	mux.HandleFunc("/api/plan/get", s.handleGetPlan)
	mux.HandleFunc("/api/plan/update", s.handleUpdatePlan)
	mux.HandleFunc("/api/plan/deposit", s.handleDepositPlan)

	mux.HandleFunc("/", s.handleStatic)

	return s.loggingMiddleware(corsMiddleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleStatic serves WebApp assets for non-API paths, falling back to
// index.html for unknown paths.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.staticDir == "" || strings.HasPrefix(r.URL.Path, "/api/") {
		http.NotFound(w, r)
		return
	}

	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/index.html"
	}
	filePath := filepath.Join(s.staticDir, filepath.Clean(urlPath))
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
		return
	}
	http.ServeFile(w, r, filePath)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

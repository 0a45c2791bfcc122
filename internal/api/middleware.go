package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"budgetbot/internal/metrics"
)

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags every request with a request id, logs its outcome
// and records latency and outcome metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		metrics.RequestDuration.WithLabelValues(r.URL.Path).Observe(duration.Seconds())
		metrics.Operations.WithLabelValues(r.URL.Path, statusClass(rec.status)).Inc()

		s.logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		)
	})
}

func statusClass(code int) string {
	switch {
	case code < 400:
		return "ok"
	case code < 500:
		return "denied"
	default:
		return "error"
	}
}

// corsMiddleware adds CORS headers for the WebApp, which Telegram serves
// from a different origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

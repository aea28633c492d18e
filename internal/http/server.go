// Package http exposes the coordinator to the presentation layer as a
// small JSON API. Handlers never touch the store directly.
package http

import (
	"net/http"
	"time"

	"lucas/internal/app"
	"lucas/internal/log"
)

// Server wires routes, middleware and timeouts around the coordinator.
type Server struct {
	app    *app.App
	logger *log.Logger
}

// NewServer returns an http.Server ready to listen on addr.
func NewServer(addr string, a *app.App, logger *log.Logger) *http.Server {
	s := &Server{
		app:    a,
		logger: logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/budget", s.handleAdjustBudget)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("GET /api/periods", s.handleListPeriods)
	mux.HandleFunc("POST /api/reports/monthly", s.handleCloseMonth)
	mux.HandleFunc("POST /api/reports/annual", s.handleCloseYear)

	return &http.Server{
		Addr:           addr,
		Handler:        s.withRequestLog(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.InfoContext(r.Context(), "Request handled",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

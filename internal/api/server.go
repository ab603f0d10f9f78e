// Package api provides the HTTP server for stakeday.
// It exposes the planner, wallet, proof log and reward vault as a small JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stakeday/stakeday/internal/app/session"
	"github.com/stakeday/stakeday/internal/infra/logging"
	"github.com/stakeday/stakeday/internal/infra/observability"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the stakeday HTTP API server.
type Server struct {
	store          *session.Store
	journal        *observability.Journal
	metricsEnabled bool
	log            *logrus.Entry
}

// NewServer creates a new API server over store.
func NewServer(store *session.Store, logger logrus.FieldLogger) *Server {
	return &Server{store: store, log: logging.Component(logger, "api")}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetJournal exposes recent transitions at /api/journal.
func (s *Server) SetJournal(j *observability.Journal) { s.journal = j }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.requestLogger)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		// Planner
		r.Put("/plan", s.handleSetPlan)
		r.Post("/plan/suggest", s.handleSuggest)
		r.Get("/suggestions", s.handlePreviewSuggestions)
		r.Post("/actions", s.handleAddAction)
		r.Delete("/actions/{id}", s.handleRemoveAction)
		r.Post("/actions/{id}/toggle", s.handleToggle)
		r.Put("/weekly-target", s.handleWeeklyTarget)

		// Wallet
		r.Route("/wallet", func(r chi.Router) {
			r.Post("/deposit", s.handleDeposit)
			r.Put("/rate", s.handleStakeRate)
			r.Put("/deadline", s.handleDeadline)
			r.Put("/strict", s.handleStrict)
			r.Post("/penalty", s.handlePenalty)
		})
		r.Get("/ledger", s.handleLedger)

		// Proofs and rewards
		r.Get("/proofs", s.handleListProofs)
		r.Post("/proofs", s.handleAddProof)
		r.Get("/rewards", s.handleListRewards)
		r.Post("/rewards", s.handleAddReward)
		r.Post("/rewards/{id}/claim", s.handleClaimReward)

		r.Post("/reset", s.handleReset)

		if s.journal != nil {
			r.Get("/journal", s.handleJournal)
		}
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

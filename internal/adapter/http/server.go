// Package http exposes the portal's operational API: advisory composition,
// alert generation and dispatch triggers, plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/savator12/agriadapt/internal/alerts"
	"github.com/savator12/agriadapt/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AdvisoryService runs the full advisory flow for one farmer.
type AdvisoryService interface {
	ComposeAndPersist(ctx context.Context, farmerID uuid.UUID, language string) (uuid.UUID, error)
}

// AlertService covers alert generation and dispatch.
type AlertService interface {
	GenerateForFarmer(ctx context.Context, farmerID uuid.UUID) ([]uuid.UUID, error)
	GenerateForAllActiveFarmers(ctx context.Context) (int, error)
}

// DispatchService drains the alert queue.
type DispatchService interface {
	ProcessQueued(ctx context.Context, limit int) (alerts.DispatchStats, error)
}

// Server exposes the portal's HTTP API.
type Server struct {
	httpServer    *http.Server
	advisories    AdvisoryService
	alerts        AlertService
	dispatcher    DispatchService
	dispatchLimit int
	logger        *slog.Logger
}

// NewServer creates the HTTP server with operational and observability
// routes.
func NewServer(addr string, ready ReadinessChecker, advisories AdvisoryService, alertSvc AlertService, dispatcher DispatchService, dispatchLimit int, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		advisories:    advisories,
		alerts:        alertSvc,
		dispatcher:    dispatcher,
		dispatchLimit: dispatchLimit,
		logger:        logger,
	}

	mux.HandleFunc("POST /api/advisories", s.handleComposeAdvisory)
	mux.HandleFunc("POST /api/alerts/generate", s.handleGenerateAlerts)
	mux.HandleFunc("POST /api/alerts/generate-all", s.handleGenerateAllAlerts)
	mux.HandleFunc("POST /api/alerts/process", s.handleProcessAlerts)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type composeAdvisoryRequest struct {
	FarmerID string `json:"farmer_id"`
	Language string `json:"language,omitempty"`
}

func (s *Server) handleComposeAdvisory(w http.ResponseWriter, r *http.Request) {
	var req composeAdvisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	farmerID, err := uuid.Parse(req.FarmerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid farmer_id")
		return
	}

	advisoryID, err := s.advisories.ComposeAndPersist(r.Context(), farmerID, req.Language)
	if err != nil {
		s.writeServiceError(w, "compose advisory", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"advisory_id": advisoryID.String()})
}

type generateAlertsRequest struct {
	FarmerID string `json:"farmer_id"`
}

func (s *Server) handleGenerateAlerts(w http.ResponseWriter, r *http.Request) {
	var req generateAlertsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	farmerID, err := uuid.Parse(req.FarmerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid farmer_id")
		return
	}

	ids, err := s.alerts.GenerateForFarmer(r.Context(), farmerID)
	if err != nil {
		s.writeServiceError(w, "generate alerts", err)
		return
	}

	alertIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		alertIDs = append(alertIDs, id.String())
	}
	writeJSON(w, http.StatusCreated, map[string]any{"alert_ids": alertIDs})
}

func (s *Server) handleGenerateAllAlerts(w http.ResponseWriter, r *http.Request) {
	generated, err := s.alerts.GenerateForAllActiveFarmers(r.Context())
	if err != nil {
		s.writeServiceError(w, "generate all alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"generated": generated})
}

type processAlertsRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) handleProcessAlerts(w http.ResponseWriter, r *http.Request) {
	limit := s.dispatchLimit
	var req processAlertsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Limit > 0 {
		limit = req.Limit
	}

	stats, err := s.dispatcher.ProcessQueued(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, "process alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "farmer not found")
		return
	}
	s.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

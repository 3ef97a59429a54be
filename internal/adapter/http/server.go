// Package http exposes the service's HTTP surface: health, readiness,
// metrics, and the prediction, reallocation, and active-fire endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ZoneSource loads the zone table for a reallocation run.
type ZoneSource interface {
	LoadZones(ctx context.Context) ([]domain.Zone, error)
}

// ResourcePlanner computes a transfer plan from a zone table.
type ResourcePlanner interface {
	Plan(zones []domain.Zone) domain.TransferPlan
}

// PlanSink publishes a computed transfer plan downstream.
type PlanSink interface {
	PublishPlan(ctx context.Context, plan domain.TransferPlan) error
}

// Deps are the collaborators wired into the server. Predictor, Fires, and
// Sink may be nil when the corresponding feature is disabled.
type Deps struct {
	Ready     ReadinessChecker
	Predictor domain.SpreadPredictor
	Zones     ZoneSource
	Planner   ResourcePlanner
	Sink      PlanSink
	Fires     domain.FireSource
}

// Server exposes the HTTP API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, deps Deps, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:    deps,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /predict_spread", s.handlePredictSpread)
	mux.HandleFunc("POST /optimize_resources", s.handleOptimizeResources)
	mux.HandleFunc("POST /evacuation_plan", s.handleEvacuationPlan)
	mux.HandleFunc("GET /active_fires", s.handleActiveFires)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.Ready.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handlePredictSpread forwards an input tensor batch to the configured spread
// model and returns its probability tensor.
func (s *Server) handlePredictSpread(w http.ResponseWriter, r *http.Request) {
	if s.deps.Predictor == nil {
		s.metrics.PredictRequests.WithLabelValues("disabled").Inc()
		writeError(w, http.StatusServiceUnavailable, "prediction model not configured", "")
		return
	}

	var req struct {
		InputData [][][][]float64 `json:"input_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := domain.Tensor4FromNested(req.InputData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid input_data tensor", err.Error())
		return
	}

	prediction, err := s.deps.Predictor.PredictSpread(r.Context(), input)
	if err != nil {
		s.logger.Error("prediction failed", "error", err)
		writeError(w, http.StatusBadGateway, "prediction failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prediction": prediction.Nested()})
}

// handleOptimizeResources loads the zone table, runs the reallocation engine
// in-process, and returns the resulting transfer events. Zone-table failures
// and engine failures report distinct messages so operators can tell a broken
// input from a broken run.
func (s *Server) handleOptimizeResources(w http.ResponseWriter, r *http.Request) {
	zones, err := s.deps.Zones.LoadZones(r.Context())
	if err != nil {
		s.logger.Error("zone table load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "loading zone table failed", err.Error())
		return
	}

	plan := s.deps.Planner.Plan(zones)

	if s.deps.Sink != nil {
		if err := s.deps.Sink.PublishPlan(r.Context(), plan); err != nil {
			// The plan is still valid; publishing is best-effort.
			s.metrics.PlanPublishErrors.Inc()
			s.logger.Warn("publish transfer plan failed", "plan_id", plan.PlanID, "error", err)
		}
	}

	events := plan.Events
	if events == nil {
		events = []domain.TransferEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"plan_id":      plan.PlanID,
		"generated_at": plan.GeneratedAt,
		"data":         events,
	})
}

// handleEvacuationPlan returns the static evacuation route catalog.
func (s *Server) handleEvacuationPlan(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Emergency evacuation plan created successfully",
		"evacuation_routes": []string{
			"Route A: 5 km",
			"Route B: 3 km",
			"Route C: 8 km",
		},
	})
}

// handleActiveFires serves recent satellite fire detections for a country.
func (s *Server) handleActiveFires(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fires == nil {
		writeError(w, http.StatusServiceUnavailable, "active-fire feed not configured", "")
		return
	}

	country := r.URL.Query().Get("country")
	if country == "" {
		country = "IND"
	}
	days := 3
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10 {
			writeError(w, http.StatusBadRequest, "days must be an integer between 1 and 10", "")
			return
		}
		days = n
	}

	detections, err := s.deps.Fires.ActiveFires(r.Context(), country, days)
	if err != nil {
		s.logger.Error("active fire fetch failed", "country", country, "error", err)
		writeError(w, http.StatusBadGateway, "fetching active fires failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(detections),
		"data":   detections,
	})
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	payload := map[string]string{
		"status":  "error",
		"message": message,
	}
	if detail != "" {
		payload["error"] = detail
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

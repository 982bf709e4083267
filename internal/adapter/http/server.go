package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/pipeline"
)

// maxRequestBytes bounds an /v1/analyze body. A ten-zone inline payload is
// roughly 5 MB of JSON.
const maxRequestBytes = 64 << 20

// ReportAnalyzer analyses one parsed simulation payload.
type ReportAnalyzer interface {
	Analyze(ctx context.Context, payload domain.SimulationPayload) (domain.AnalysisReport, error)
}

// Server exposes health, readiness, metrics, and on-demand analysis HTTP
// endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   ReportAnalyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics
// routes, plus POST /v1/analyze when analyzer is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, analyzer ReportAnalyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if analyzer != nil {
		mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	}

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

// errorResponse is the body of every non-2xx /v1/analyze response.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sharedobs.WriteJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error(), Reason: pipeline.ReasonParse})
			return
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: pipeline.ReasonParse})
		return
	}

	payload, err := domain.ParseRawEvent(domain.RawEvent{Value: body})
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: pipeline.ReasonParse})
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), payload)
	if err != nil {
		reason := pipeline.ErrorReason(err)
		status := statusFor(reason)
		if errors.Is(err, pipeline.ErrNoObjectStore) {
			status = http.StatusBadRequest
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("analysis request failed", "error", err, "reason", reason, "simulation_id", payload.SimulationID)
		} else {
			s.logger.Info("analysis request rejected", "error", err, "reason", reason, "simulation_id", payload.SimulationID)
		}
		sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error(), Reason: reason})
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, report)
}

// statusFor maps a transform error reason to an HTTP status.
func statusFor(reason string) int {
	switch reason {
	case pipeline.ReasonParse, pipeline.ReasonShape, pipeline.ReasonConfiguration:
		return http.StatusBadRequest
	case pipeline.ReasonComfortModel:
		return http.StatusUnprocessableEntity
	case pipeline.ReasonFetch:
		return http.StatusBadGateway
	case pipeline.ReasonCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

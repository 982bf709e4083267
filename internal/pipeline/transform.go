package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// Transform error reasons, used as the TransformErrors metric label.
const (
	ReasonParse         = "parse"
	ReasonFetch         = "fetch"
	ReasonShape         = "shape"
	ReasonConfiguration = "configuration"
	ReasonComfortModel  = "comfort_model"
	ReasonSerialize     = "serialize"
	ReasonCanceled      = "canceled"
	ReasonUnknown       = "unknown"
)

// ErrNoObjectStore is returned for claim-check payloads when no object store
// is configured.
var ErrNoObjectStore = errors.New("matrix_ref given but no object store configured")

// TransformError tags a failed message with the reason it was skipped.
type TransformError struct {
	Reason string
	Err    error
}

func (e *TransformError) Error() string { return e.Reason + ": " + e.Err.Error() }

func (e *TransformError) Unwrap() error { return e.Err }

// ErrorReason returns the TransformErrors label for err.
func ErrorReason(err error) string {
	var te *TransformError
	if errors.As(err, &te) {
		return te.Reason
	}
	return analysisReason(err)
}

// isCanceled reports whether err stems from a cancelled or expired context
// rather than from the message itself.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func analysisReason(err error) string {
	switch {
	case errors.Is(err, overheating.ErrShape):
		return ReasonShape
	case errors.Is(err, overheating.ErrConfiguration):
		return ReasonConfiguration
	case errors.Is(err, overheating.ErrComfortModel):
		return ReasonComfortModel
	case errors.Is(err, domain.ErrInvalidPayload):
		return ReasonParse
	case isCanceled(err):
		return ReasonCanceled
	default:
		return ReasonUnknown
	}
}

// Analyzer runs the overheating analysis for one simulation.
type Analyzer interface {
	Analyze(ctx context.Context, in overheating.Inputs) (*overheating.Results, error)
}

// MatrixFetcher resolves a claim-check reference to the simulation matrices.
type MatrixFetcher interface {
	FetchMatrices(ctx context.Context, ref domain.MatrixRef) (domain.Matrices, error)
}

// AnalysisTransformer implements Transformer: it parses a simulation
// payload, resolves claim-check matrices, runs the analysis, and serializes
// the report.
type AnalysisTransformer struct {
	analyzer Analyzer
	store    MatrixFetcher
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates an AnalysisTransformer. Pass a nil store to reject
// payloads that reference matrices by matrix_ref.
func NewTransformer(analyzer Analyzer, store MatrixFetcher, logger *slog.Logger, metrics *observability.Metrics) *AnalysisTransformer {
	return &AnalysisTransformer{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *AnalysisTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	payload, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, &TransformError{Reason: ReasonParse, Err: err}
	}

	report, err := t.Analyze(ctx, payload)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	out, err := domain.SerializeReport(report)
	if err != nil {
		return domain.OutputEvent{}, &TransformError{Reason: ReasonSerialize, Err: err}
	}
	return out, nil
}

// Analyze resolves claim-check matrices, runs the analysis for a parsed
// payload, and wraps the results in a report. Errors are *TransformError.
func (t *AnalysisTransformer) Analyze(ctx context.Context, payload domain.SimulationPayload) (domain.AnalysisReport, error) {
	if payload.MatrixRef != nil {
		if err := t.resolveMatrices(ctx, &payload); err != nil {
			reason := ReasonFetch
			if ctx.Err() != nil {
				reason = ReasonCanceled
			}
			return domain.AnalysisReport{}, &TransformError{Reason: reason, Err: err}
		}
	}

	in, err := payload.Inputs()
	if err != nil {
		return domain.AnalysisReport{}, analysisError(payload.SimulationID, err)
	}

	start := time.Now()
	results, err := t.analyzer.Analyze(ctx, in)
	if err != nil {
		return domain.AnalysisReport{}, analysisError(payload.SimulationID, err)
	}
	elapsed := time.Since(start)

	report := domain.NewAnalysisReport(payload, results)
	t.metrics.AnalysisDuration.Observe(elapsed.Seconds())
	t.metrics.ZonesAnalyzed.Add(float64(len(report.Zones)))
	t.metrics.ZonesAtRisk.Add(float64(len(report.AtRiskZones)))

	t.logger.Debug("simulation analysed",
		"simulation_id", payload.SimulationID,
		"report_id", report.ID,
		"zones", len(report.Zones),
		"at_risk", report.AtRiskZones,
		"duration", elapsed,
	)
	return report, nil
}

func analysisError(simulationID string, err error) error {
	return &TransformError{
		Reason: analysisReason(err),
		Err:    fmt.Errorf("simulation %s: %w", simulationID, err),
	}
}

func (t *AnalysisTransformer) resolveMatrices(ctx context.Context, payload *domain.SimulationPayload) error {
	if t.store == nil {
		return fmt.Errorf("simulation %s: %w", payload.SimulationID, ErrNoObjectStore)
	}
	m, err := t.store.FetchMatrices(ctx, *payload.MatrixRef)
	if err != nil {
		return fmt.Errorf("simulation %s: %w", payload.SimulationID, err)
	}
	payload.Matrices = m
	return nil
}

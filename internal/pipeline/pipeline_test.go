package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

// slowTransformer records the peak number of concurrent Transform calls.
type slowTransformer struct {
	delay    time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (m *slowTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)
	if string(raw.Key) == "poison" {
		return domain.OutputEvent{}, errors.New("bad payload")
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.OutputEvent
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func rawMessage(key string, commits *atomic.Int64) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(`{"simulation_id":"` + key + `"}`),
		Topic: "simulation-results",
		Commit: func(context.Context) error {
			commits.Add(1)
			return nil
		},
	}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawMessage("sim-1", &commits), rawMessage("sim-2", &commits)}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, 2, ldr.count())
	assert.Equal(t, int64(2), commits.Load())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesConsumed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesProduced))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, slog.Default(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, ldr.count())
}

func TestPipeline_Run_TransformErrorCommitsAndCounts(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawEvent{{rawMessage("sim-bad", &commits)}}}
	tfm := &mockTransformer{err: &pipeline.TransformError{Reason: pipeline.ReasonShape, Err: errors.New("dry_bulb: wrong shape")}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Zero(t, ldr.count())
	assert.Equal(t, int64(1), commits.Load(), "poison message must be committed")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues(pipeline.ReasonShape)))
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{rawMessage("sim-1", &commits)},
		{rawMessage("sim-2", &commits)},
	}}
	ldr := &mockLoader{failures: 1}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, time.Second)

	assert.Equal(t, 1, ldr.count())
	assert.Equal(t, int64(1), commits.Load())
}

func TestPipeline_Run_ExtractErrorBacksOff(t *testing.T) {
	ext := &mockExtractor{err: errors.New("connection refused")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, slog.Default(), observability.NewMetricsForTesting(), 10)

	start := time.Now()
	runFor(t, p, 500*time.Millisecond)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, ldr.count())
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, pipeline.ReasonFetch, pipeline.ErrorReason(&pipeline.TransformError{Reason: pipeline.ReasonFetch, Err: errors.New("x")}))
	assert.Equal(t, pipeline.ReasonParse, pipeline.ErrorReason(domain.ErrInvalidPayload))
	assert.Equal(t, pipeline.ReasonUnknown, pipeline.ErrorReason(errors.New("boom")))
	assert.Equal(t, pipeline.ReasonCanceled, pipeline.ErrorReason(fmt.Errorf("simulation x: %w", context.Canceled)))
}

func TestPipeline_Run_ConcurrentTransformKeepsOrder(t *testing.T) {
	var commits atomic.Int64
	keys := []string{"sim-1", "sim-2", "poison", "sim-3", "sim-4", "sim-5"}
	batch := make([]domain.RawEvent, len(keys))
	for i, k := range keys {
		batch[i] = rawMessage(k, &commits)
	}
	ext := &mockExtractor{batches: [][]domain.RawEvent{batch}}
	tfm := &slowTransformer{delay: 20 * time.Millisecond}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, tfm, ldr, slog.Default(), metrics, len(batch), pipeline.WithConcurrency(3))
	runFor(t, p, 500*time.Millisecond)

	require.Equal(t, 5, ldr.count())
	got := make([]string, 0, 5)
	for _, e := range ldr.loaded {
		got = append(got, string(e.Key))
	}
	assert.Equal(t, []string{"sim-1", "sim-2", "sim-3", "sim-4", "sim-5"}, got)
	assert.Equal(t, int64(6), commits.Load())
	assert.LessOrEqual(t, tfm.peak.Load(), int64(3))
	assert.Greater(t, tfm.peak.Load(), int64(1))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransformErrors.WithLabelValues(pipeline.ReasonUnknown)))
}

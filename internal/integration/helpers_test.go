//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/mock"
	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
	"github.com/couchcryptid/thermal-risk-etl/internal/pipeline"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("thermal-risk-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// dryBulbModel reports SET equal to dry-bulb, which keeps EDH predictable
// and the tests fast.
type dryBulbModel struct{}

func (dryBulbModel) StandardEffectiveTemperature(_ context.Context, in overheating.ComfortInputs) ([]float64, error) {
	return append([]float64(nil), in.DryBulb...), nil
}

// atticPolicy flags any zone with more than 100 hours above 30 °C.
func atticPolicy() overheating.Config {
	cfg := overheating.DefaultConfig()
	cfg.HeatThresholds[1].Criteria = []overheating.Criterion{overheating.CountFailureCriterion{MaxHours: 100}}
	return cfg
}

func newTransformer(t *testing.T, store pipeline.MatrixFetcher, metrics *observability.Metrics) *pipeline.AnalysisTransformer {
	t.Helper()
	analyzer, err := overheating.NewAnalyzer(atticPolicy(), dryBulbModel{})
	require.NoError(t, err)
	return pipeline.NewTransformer(analyzer, store, discardLogger(), metrics)
}

func simulationJSON(t *testing.T, id string, seed uint64) []byte {
	t.Helper()
	data, err := json.Marshal(mock.Simulation(mock.Options{SimulationID: id, Seed: seed, Noise: 0.5}))
	require.NoError(t, err)
	return data
}

// publishedReport is a report read back from the sink topic.
type publishedReport struct {
	Report  domain.AnalysisReport
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return publishedReport{Report: report, Key: string(msg.Key), Headers: headers}
}

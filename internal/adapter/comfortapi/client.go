// Package comfortapi delegates Standard Effective Temperature to a remote
// comfort-model service and caches its answers.
package comfortapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/couchcryptid/thermal-risk-etl/internal/observability"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// maxErrorBody bounds how much of a non-200 response ends up in an error.
const maxErrorBody = 512

// Client implements overheating.ComfortModel against a remote SET service.
// One request carries a whole zone series. Missing values travel as JSON
// null in both directions.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a client that POSTs to endpoint.
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Comfort API wire types.

type request struct {
	DryBulb          []*float64 `json:"tdb"`
	MeanRadiant      []*float64 `json:"tr"`
	RelativeHumidity []*float64 `json:"rh"`
	Met              float64    `json:"met"`
	Clo              float64    `json:"clo"`
	AirSpeed         float64    `json:"v"`
}

type response struct {
	SET []*float64 `json:"set"`
}

func (c *Client) StandardEffectiveTemperature(ctx context.Context, in overheating.ComfortInputs) ([]float64, error) {
	start := time.Now()
	set, err := c.do(ctx, in)
	c.metrics.ComfortAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ComfortRequests.WithLabelValues("error").Inc()
		c.logger.Warn("comfort api request failed", "error", err, "hours", len(in.DryBulb))
		return nil, err
	}
	c.metrics.ComfortRequests.WithLabelValues("success").Inc()
	return set, nil
}

func (c *Client) do(ctx context.Context, in overheating.ComfortInputs) ([]float64, error) {
	body, err := json.Marshal(request{
		DryBulb:          nullable(in.DryBulb),
		MeanRadiant:      nullable(in.MeanRadiant),
		RelativeHumidity: nullable(in.RelativeHumidity),
		Met:              in.Met,
		Clo:              in.Clo,
		AirSpeed:         in.AirSpeed,
	})
	if err != nil {
		return nil, fmt.Errorf("encode comfort request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("comfort api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("comfort api error: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode comfort response: %w", err)
	}
	if len(out.SET) != len(in.DryBulb) {
		return nil, fmt.Errorf("comfort api returned %d values for %d hours", len(out.SET), len(in.DryBulb))
	}
	return fromNullable(out.SET), nil
}

// nullable maps NaN to nil so the series survives JSON encoding.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}

func fromNullable(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

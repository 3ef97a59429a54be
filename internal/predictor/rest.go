// Package predictor provides a client for a remote next-day fire spread
// model server. The model itself is an external collaborator; this package
// only implements the tensor-in, tensor-out contract.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
)

// Client implements domain.SpreadPredictor against a model server that
// accepts {"input_data": [...]} and responds {"prediction": [...]}.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a spread-model client for the given endpoint.
func NewClient(endpoint string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

type predictRequest struct {
	InputData [][][][]float64 `json:"input_data"`
}

type predictResponse struct {
	Prediction [][][][]float64 `json:"prediction"`
}

// PredictSpread sends one input batch to the model server and decodes the
// probability batch it returns.
func (c *Client) PredictSpread(ctx context.Context, input *domain.Tensor4) (*domain.Tensor4, error) {
	body, err := json.Marshal(predictRequest{InputData: input.Nested()})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.PredictRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.PredictDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.PredictRequests.WithLabelValues("error").Inc()
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model server error: status %d: %s", resp.StatusCode, payload)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.metrics.PredictRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode predict response: %w", err)
	}

	prediction, err := domain.Tensor4FromNested(decoded.Prediction)
	if err != nil {
		c.metrics.PredictRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("malformed prediction tensor: %w", err)
	}

	c.metrics.PredictRequests.WithLabelValues("success").Inc()
	return prediction, nil
}

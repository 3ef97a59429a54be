// Package firms fetches active-fire detections from the NASA FIRMS API.
package firms

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/wildfire-spread-etl/internal/domain"
	"github.com/couchcryptid/wildfire-spread-etl/internal/observability"
)

const defaultBaseURL = "https://firms.modaps.eosdis.nasa.gov/api/country/csv"

// Client implements domain.FireSource using the FIRMS country CSV API.
type Client struct {
	mapKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS client. mapKey is the FIRMS API map key.
func NewClient(mapKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		mapKey: mapKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ActiveFires fetches MODIS near-real-time detections for a country over the
// trailing day window and parses the CSV response.
func (c *Client) ActiveFires(ctx context.Context, country string, days int) ([]domain.FireDetection, error) {
	u := fmt.Sprintf("%s/%s/MODIS_NRT/%s/%d", c.baseURL, c.mapKey, country, days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FirmsRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("firms request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.FirmsAPIDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.FirmsRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, body)
	}

	detections, err := parseDetections(resp.Body)
	if err != nil {
		c.metrics.FirmsRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.FirmsRequests.WithLabelValues("success").Inc()
	return detections, nil
}

// parseDetections decodes the FIRMS CSV payload. Latitude and longitude are
// required; the remaining columns vary by instrument and default to empty.
func parseDetections(r io.Reader) ([]domain.FireDetection, error) {
	reader := csv.NewReader(r)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read firms csv: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("firms response has no header row")
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[h] = i
	}
	for _, col := range []string{"latitude", "longitude"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("firms response is missing column %q", col)
		}
	}

	field := func(row []string, name string) string {
		i, ok := colIdx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	detections := make([]domain.FireDetection, 0, len(rows)-1)
	for n, row := range rows[1:] {
		lat, err := strconv.ParseFloat(field(row, "latitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("firms row %d: latitude: %w", n+2, err)
		}
		lon, err := strconv.ParseFloat(field(row, "longitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("firms row %d: longitude: %w", n+2, err)
		}

		brightness, _ := strconv.ParseFloat(field(row, "brightness"), 64)
		frp, _ := strconv.ParseFloat(field(row, "frp"), 64)

		detections = append(detections, domain.FireDetection{
			Lat:        lat,
			Lon:        lon,
			Brightness: brightness,
			AcqDate:    field(row, "acq_date"),
			AcqTime:    field(row, "acq_time"),
			Satellite:  field(row, "satellite"),
			Confidence: field(row, "confidence"),
			FRP:        frp,
			DayNight:   field(row, "daynight"),
		})
	}
	return detections, nil
}

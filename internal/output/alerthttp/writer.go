package alerthttp

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"socsentinel/pkg/models"
)

// Batch metadata headers. Receivers can route on these without parsing
// the JSON body, e.g. paging only on CRITICAL batches.
const (
	headerAlertCount  = "X-Sentinel-Alert-Count"
	headerMaxSeverity = "X-Sentinel-Max-Severity"
	headerDegraded    = "X-Sentinel-Degraded"
)

// severityRank orders severities for the max-severity header.
var severityRank = map[models.Severity]int{
	models.SeverityLow:      1,
	models.SeverityMedium:   2,
	models.SeverityHigh:     3,
	models.SeverityCritical: 4,
}

// Writer posts alert batches to a webhook-style endpoint as a JSON
// array, one request per batch.
type Writer struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// Config configures the HTTP writer.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// NewWriter creates an HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http alert URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// WriteAlerts posts a batch of alerts. The batch's size, highest
// severity, and degraded-scoring flag travel as headers.
func (w *Writer) WriteAlerts(alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	req, err := http.NewRequest("POST", w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAlertCount, fmt.Sprintf("%d", len(alerts)))
	req.Header.Set(headerMaxSeverity, string(maxSeverity(alerts)))
	if anyDegraded(alerts) {
		req.Header.Set(headerDegraded, "true")
	}
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http request failed with status %s", resp.Status)
	}

	return nil
}

// Close releases HTTP resources.
func (w *Writer) Close() error {
	return nil
}

func maxSeverity(alerts []*models.Alert) models.Severity {
	max := alerts[0].Severity
	for _, a := range alerts[1:] {
		if severityRank[a.Severity] > severityRank[max] {
			max = a.Severity
		}
	}
	return max
}

func anyDegraded(alerts []*models.Alert) bool {
	for _, a := range alerts {
		if a.Degraded {
			return true
		}
	}
	return false
}

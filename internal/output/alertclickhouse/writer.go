package alertclickhouse

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"socsentinel/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Writer sends alerts to ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "alerts"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	base := strings.TrimRight(cfg.URL, "/")
	endpoint := base + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// row is the flat JSONEachRow projection of an alert. Nested structures
// go in as a JSON string column.
type row struct {
	AlertID            string  `json:"alert_id"`
	Actor              string  `json:"actor"`
	WindowStart        string  `json:"window_start"`
	WindowEnd          string  `json:"window_end"`
	Score              float64 `json:"score"`
	Severity           string  `json:"severity"`
	Status             string  `json:"status"`
	ScoreSource        string  `json:"score_source"`
	Degraded           uint8   `json:"degraded"`
	Narrative          string  `json:"narrative"`
	NarrativeAvailable uint8   `json:"narrative_available"`
	Breakdown          string  `json:"breakdown"`
	CreatedAt          string  `json:"created_at"`
}

func toRow(alert *models.Alert) (row, error) {
	r := row{
		AlertID:     alert.AlertID,
		Actor:       alert.Actor,
		WindowStart: alert.WindowStart.UTC().Format("2006-01-02 15:04:05"),
		WindowEnd:   alert.WindowEnd.UTC().Format("2006-01-02 15:04:05"),
		Score:       alert.Score,
		Severity:    string(alert.Severity),
		Status:      string(alert.Status),
		ScoreSource: alert.ScoreSource,
		Narrative:   alert.Narrative,
		CreatedAt:   alert.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
	if alert.Degraded {
		r.Degraded = 1
	}
	if alert.NarrativeAvailable {
		r.NarrativeAvailable = 1
	}
	if alert.Breakdown != nil {
		b, err := json.Marshal(alert.Breakdown)
		if err != nil {
			return row{}, fmt.Errorf("failed to marshal breakdown: %w", err)
		}
		r.Breakdown = string(b)
	}
	return r, nil
}

// WriteAlerts sends a batch of alerts.
func (w *Writer) WriteAlerts(alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, alert := range alerts {
		r, err := toRow(alert)
		if err != nil {
			return err
		}
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal alert row: %w", err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}

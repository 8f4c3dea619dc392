package reputation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// ClientConfig configures the HTTP reputation client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client queries an AbuseIPDB-style HTTP reputation endpoint. The
// response shape is the only protocol assumption: a JSON body carrying
// an abuse confidence percentage under data.abuseConfidenceScore.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates an HTTP reputation client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("reputation base URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type checkResponse struct {
	Data struct {
		AbuseConfidenceScore float64 `json:"abuseConfidenceScore"`
	} `json:"data"`
}

// Score looks up one IP. The returned reputation is 100 minus the abuse
// confidence reported by the service.
func (c *Client) Score(ctx context.Context, ip string) (float64, error) {
	endpoint := c.baseURL + "/check?ipAddress=" + url.QueryEscape(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create reputation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("reputation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read reputation response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("reputation request failed with status %s", resp.Status)
	}

	var parsed checkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode reputation response: %w", err)
	}

	return clampScore(100 - parsed.Data.AbuseConfidenceScore), nil
}

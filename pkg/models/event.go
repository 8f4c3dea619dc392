package models

import "time"

// Event types understood by the feature aggregator.
const (
	EventLoginSuccess = "login_success"
	EventLoginFailure = "login_failure"
	EventRequest      = "request"
)

// Event is one observed action by an actor. Immutable once parsed.
type Event struct {
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"@timestamp"`
	Type       string    `json:"event_type"`
	SourceIP   string    `json:"source_ip,omitempty"`
	Country    string    `json:"country,omitempty"`
	Latitude   float64   `json:"latitude,omitempty"`
	Longitude  float64   `json:"longitude,omitempty"`
	HasGeo     bool      `json:"has_geo,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	BytesSent  float64   `json:"bytes_sent,omitempty"`
	LatencyMS  float64   `json:"latency_ms,omitempty"`
	Endpoint   string    `json:"endpoint,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// IsLogin reports whether the event is an authentication attempt.
func (e *Event) IsLogin() bool {
	return e.Type == EventLoginSuccess || e.Type == EventLoginFailure
}

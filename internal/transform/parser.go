package transform

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"socsentinel/pkg/models"
)

// wireEvent accepts the field spellings seen across log shippers. Geo
// coordinates are pointers so absence is distinguishable from 0,0.
type wireEvent struct {
	Timestamp    string   `json:"timestamp"`
	AtTimestamp  string   `json:"@timestamp"`
	Actor        string   `json:"actor"`
	User         string   `json:"user"`
	Username     string   `json:"username"`
	EventType    string   `json:"event_type"`
	Event        string   `json:"event"`
	LoginStatus  string   `json:"login_status"`
	SourceIP     string   `json:"source_ip"`
	IPAddress    string   `json:"ip_address"`
	SrcIP        string   `json:"src_ip"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	StatusCode   int      `json:"status_code"`
	BytesSent    float64  `json:"bytes_sent"`
	LatencyMS    float64  `json:"latency_ms"`
	ResponseTime float64  `json:"response_time_ms"`
	Endpoint     string   `json:"endpoint"`
	UserAgent    string   `json:"user_agent"`

	Extra map[string]interface{} `json:"extra"`
}

// Parse converts one raw telemetry message into a normalized Event.
func Parse(data []byte) (*models.Event, error) {
	var raw wireEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	event := &models.Event{
		Country:    raw.Country,
		StatusCode: raw.StatusCode,
		BytesSent:  raw.BytesSent,
		Endpoint:   raw.Endpoint,
		UserAgent:  raw.UserAgent,
		Extra:      raw.Extra,
	}

	event.SourceIP = firstNonEmpty(raw.SourceIP, raw.IPAddress, raw.SrcIP)

	event.Actor = firstNonEmpty(raw.Actor, raw.User, raw.Username)
	if event.Actor == "" {
		event.Actor = event.SourceIP
	}
	if event.Actor == "" {
		return nil, fmt.Errorf("event has no actor or source ip")
	}

	event.Type = normalizeType(raw)
	if event.Type == "" {
		return nil, fmt.Errorf("event has no recognizable type")
	}

	ts, ok := parseTimestamp(firstNonEmpty(raw.AtTimestamp, raw.Timestamp))
	if !ok {
		return nil, fmt.Errorf("event has no parseable timestamp")
	}
	event.Timestamp = ts

	event.LatencyMS = raw.LatencyMS
	if event.LatencyMS == 0 {
		event.LatencyMS = raw.ResponseTime
	}

	if raw.Latitude != nil && raw.Longitude != nil {
		event.Latitude = *raw.Latitude
		event.Longitude = *raw.Longitude
		event.HasGeo = true
	}

	return event, nil
}

// normalizeType resolves the event type from either an explicit
// event_type field or a login event with a SUCCESS/FAILURE status.
func normalizeType(raw wireEvent) string {
	t := strings.ToLower(firstNonEmpty(raw.EventType, raw.Event))
	switch t {
	case models.EventLoginSuccess, models.EventLoginFailure, models.EventRequest:
		return t
	case "login", "authentication", "auth":
		switch strings.ToUpper(raw.LoginStatus) {
		case "SUCCESS", "OK":
			return models.EventLoginSuccess
		case "FAILURE", "FAILED", "DENIED":
			return models.EventLoginFailure
		}
		return ""
	case "http", "web", "api":
		return models.EventRequest
	}
	if t == "" && raw.StatusCode > 0 {
		return models.EventRequest
	}
	return ""
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	for _, layout := range []string{
		"2006-01-02 15:04:05.000000",
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

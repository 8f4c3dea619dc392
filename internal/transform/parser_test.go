package transform

import (
	"testing"
	"time"

	"socsentinel/pkg/models"
)

func TestParseExplicitEventType(t *testing.T) {
	data := []byte(`{
		"@timestamp": "2026-03-10T14:00:00Z",
		"actor": "alice",
		"event_type": "login_failure",
		"source_ip": "185.220.101.1",
		"country": "RU",
		"latitude": 55.75,
		"longitude": 37.62
	}`)

	event, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Actor != "alice" || event.Type != models.EventLoginFailure {
		t.Fatalf("unexpected event: %+v", event)
	}
	if !event.Timestamp.Equal(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", event.Timestamp)
	}
	if !event.HasGeo || event.Latitude != 55.75 {
		t.Fatalf("expected geo coordinates: %+v", event)
	}
}

func TestParseLoginStatusMapping(t *testing.T) {
	success := []byte(`{"timestamp":"2026-03-10 14:00:00","user":"bob","event":"login","login_status":"SUCCESS","ip_address":"10.0.0.1"}`)
	failure := []byte(`{"timestamp":"2026-03-10 14:00:01","user":"bob","event":"login","login_status":"FAILURE","ip_address":"10.0.0.1"}`)

	e1, err := Parse(success)
	if err != nil {
		t.Fatalf("parse success: %v", err)
	}
	if e1.Type != models.EventLoginSuccess {
		t.Fatalf("expected login_success, got %s", e1.Type)
	}

	e2, err := Parse(failure)
	if err != nil {
		t.Fatalf("parse failure: %v", err)
	}
	if e2.Type != models.EventLoginFailure {
		t.Fatalf("expected login_failure, got %s", e2.Type)
	}
}

func TestParseActorFallsBackToSourceIP(t *testing.T) {
	data := []byte(`{"timestamp":"2026-03-10T14:00:00Z","event_type":"request","src_ip":"10.0.0.5","status_code":200}`)

	event, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Actor != "10.0.0.5" {
		t.Fatalf("expected actor fallback to source ip, got %s", event.Actor)
	}
	if event.SourceIP != "10.0.0.5" {
		t.Fatalf("unexpected source ip: %s", event.SourceIP)
	}
}

func TestParseStatusCodeImpliesRequest(t *testing.T) {
	data := []byte(`{"timestamp":"2026-03-10T14:00:00Z","user":"carol","status_code":500,"response_time_ms":120.5,"bytes_sent":4096}`)

	event, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Type != models.EventRequest {
		t.Fatalf("expected request type, got %s", event.Type)
	}
	if event.LatencyMS != 120.5 || event.BytesSent != 4096 {
		t.Fatalf("unexpected metrics: %+v", event)
	}
}

func TestParseMissingGeoLeavesHasGeoFalse(t *testing.T) {
	data := []byte(`{"timestamp":"2026-03-10T14:00:00Z","user":"dave","event_type":"request","status_code":200,"latitude":12.5}`)

	event, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.HasGeo {
		t.Fatalf("latitude without longitude must not set geo")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []string{
		`not json`,
		`{"event_type":"login_failure","actor":"x"}`,                           // no timestamp
		`{"timestamp":"2026-03-10T14:00:00Z","event_type":"login_failure"}`,    // no actor or ip
		`{"timestamp":"2026-03-10T14:00:00Z","actor":"x","event_type":"dns"}`,  // unknown type
		`{"timestamp":"bogus","actor":"x","event_type":"login_failure"}`,       // bad timestamp
	}
	for i, c := range cases {
		if _, err := Parse([]byte(c)); err == nil {
			t.Fatalf("case %d: expected parse error for %s", i, c)
		}
	}
}

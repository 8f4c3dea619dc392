package features

import (
	"context"
	"testing"
	"time"

	"socsentinel/internal/reputation"
	"socsentinel/pkg/models"
)

// Tuesday 14:30 UTC, inside business hours.
var businessAnchor = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func TestAggregateEmptyWindowIsZeroWithCalendar(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	vec := agg.Aggregate(context.Background(), "alice", nil, businessAnchor)
	if vec.Actor != "alice" {
		t.Fatalf("unexpected actor: %s", vec.Actor)
	}
	if len(vec.Values) != len(models.FeatureNames) {
		t.Fatalf("expected %d values, got %d", len(models.FeatureNames), len(vec.Values))
	}

	if vec.Get("hour_of_day") != 14 {
		t.Fatalf("unexpected hour_of_day: %v", vec.Get("hour_of_day"))
	}
	if vec.Get("is_business_hours") != 1 {
		t.Fatalf("expected business hours flag")
	}
	if vec.Get("day_of_week") != float64(time.Tuesday) {
		t.Fatalf("unexpected day_of_week: %v", vec.Get("day_of_week"))
	}
	if vec.Get("is_weekend") != 0 {
		t.Fatalf("did not expect weekend flag")
	}

	for _, name := range []string{
		"login_failure_count", "login_success_count", "unique_ips",
		"request_rate", "avg_response_time", "error_rate", "bytes_sent",
		"geo_countries_accessed", "geo_velocity", "ip_reputation_score",
	} {
		if vec.Get(name) != 0 {
			t.Fatalf("expected zero %s for empty window, got %v", name, vec.Get(name))
		}
	}
}

func TestAggregateCountsNeverDecreaseUnderAppend(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	events := []models.Event{
		{Actor: "bob", Timestamp: businessAnchor.Add(-10 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.1"},
		{Actor: "bob", Timestamp: businessAnchor.Add(-8 * time.Minute), Type: models.EventLoginSuccess, SourceIP: "10.0.0.1"},
		{Actor: "bob", Timestamp: businessAnchor.Add(-5 * time.Minute), Type: models.EventRequest, SourceIP: "10.0.0.1", StatusCode: 200, BytesSent: 1000, Country: "US"},
	}
	before := agg.Aggregate(context.Background(), "bob", events, businessAnchor)

	// Append more in-window events and re-aggregate at the same anchor.
	events = append(events,
		models.Event{Actor: "bob", Timestamp: businessAnchor.Add(-3 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.2"},
		models.Event{Actor: "bob", Timestamp: businessAnchor.Add(-2 * time.Minute), Type: models.EventRequest, SourceIP: "10.0.0.3", StatusCode: 500, BytesSent: 2000, Country: "DE"},
		models.Event{Actor: "bob", Timestamp: businessAnchor.Add(-1 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.2"},
	)
	after := agg.Aggregate(context.Background(), "bob", events, businessAnchor)

	for _, name := range []string{
		"login_failure_count", "login_success_count", "unique_ips",
		"request_rate", "bytes_sent", "geo_countries_accessed",
	} {
		if after.Get(name) < before.Get(name) {
			t.Fatalf("%s decreased after appending events: %v -> %v", name, before.Get(name), after.Get(name))
		}
	}
	if after.Get("login_failure_count") != before.Get("login_failure_count")+2 {
		t.Fatalf("expected two more failures, got %v -> %v",
			before.Get("login_failure_count"), after.Get("login_failure_count"))
	}
}

func TestAggregateCountsAndRates(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	events := []models.Event{
		{Actor: "bob", Timestamp: businessAnchor.Add(-10 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.1"},
		{Actor: "bob", Timestamp: businessAnchor.Add(-9 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.2"},
		{Actor: "bob", Timestamp: businessAnchor.Add(-8 * time.Minute), Type: models.EventLoginSuccess, SourceIP: "10.0.0.1"},
		{Actor: "bob", Timestamp: businessAnchor.Add(-5 * time.Minute), Type: models.EventRequest, SourceIP: "10.0.0.1", StatusCode: 200, BytesSent: 1000, LatencyMS: 40, Country: "US"},
		{Actor: "bob", Timestamp: businessAnchor.Add(-4 * time.Minute), Type: models.EventRequest, SourceIP: "10.0.0.1", StatusCode: 500, BytesSent: 2000, LatencyMS: 60, Country: "DE"},
		// Outside the window, must be ignored.
		{Actor: "bob", Timestamp: businessAnchor.Add(-20 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.9"},
	}

	vec := agg.Aggregate(context.Background(), "bob", events, businessAnchor)

	if vec.Get("login_failure_count") != 2 {
		t.Fatalf("unexpected failures: %v", vec.Get("login_failure_count"))
	}
	if vec.Get("login_success_count") != 1 {
		t.Fatalf("unexpected successes: %v", vec.Get("login_success_count"))
	}
	if vec.Get("unique_ips") != 2 {
		t.Fatalf("unexpected unique_ips: %v", vec.Get("unique_ips"))
	}
	if got, want := vec.Get("request_rate"), 2.0/15.0; got != want {
		t.Fatalf("unexpected request_rate: got %v want %v", got, want)
	}
	if vec.Get("avg_response_time") != 50 {
		t.Fatalf("unexpected avg_response_time: %v", vec.Get("avg_response_time"))
	}
	if vec.Get("error_rate") != 0.5 {
		t.Fatalf("unexpected error_rate: %v", vec.Get("error_rate"))
	}
	if vec.Get("bytes_sent") != 3000 {
		t.Fatalf("unexpected bytes_sent: %v", vec.Get("bytes_sent"))
	}
	if vec.Get("geo_countries_accessed") != 2 {
		t.Fatalf("unexpected geo_countries_accessed: %v", vec.Get("geo_countries_accessed"))
	}
	// No provider configured: neutral reputation.
	if vec.Get("ip_reputation_score") != 100 {
		t.Fatalf("unexpected ip_reputation_score: %v", vec.Get("ip_reputation_score"))
	}
}

func TestAggregateErrorRateGuardsDivisionByZero(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	events := []models.Event{
		{Actor: "carol", Timestamp: businessAnchor.Add(-time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.1"},
	}
	vec := agg.Aggregate(context.Background(), "carol", events, businessAnchor)
	if vec.Get("error_rate") != 0 {
		t.Fatalf("expected zero error_rate with no requests, got %v", vec.Get("error_rate"))
	}
	if vec.Get("avg_response_time") != 0 {
		t.Fatalf("expected zero avg_response_time with no requests, got %v", vec.Get("avg_response_time"))
	}
}

func TestAggregateGeoVelocityAcrossDistantIPs(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	// Moscow then Beijing two minutes apart: several thousand km/h.
	events := []models.Event{
		{Actor: "dave", Timestamp: businessAnchor.Add(-5 * time.Minute), Type: models.EventLoginFailure,
			SourceIP: "185.220.101.1", HasGeo: true, Latitude: 55.75, Longitude: 37.62},
		{Actor: "dave", Timestamp: businessAnchor.Add(-3 * time.Minute), Type: models.EventLoginFailure,
			SourceIP: "23.129.64.130", HasGeo: true, Latitude: 39.90, Longitude: 116.40},
	}
	vec := agg.Aggregate(context.Background(), "dave", events, businessAnchor)

	if vec.Get("geo_velocity") < 10000 {
		t.Fatalf("expected implausible geo velocity, got %v", vec.Get("geo_velocity"))
	}
}

func TestAggregateStationaryActorHasZeroVelocity(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	events := []models.Event{
		{Actor: "erin", Timestamp: businessAnchor.Add(-5 * time.Minute), Type: models.EventRequest,
			SourceIP: "10.0.0.1", HasGeo: true, Latitude: 39.0, Longitude: -77.0, StatusCode: 200},
		{Actor: "erin", Timestamp: businessAnchor.Add(-3 * time.Minute), Type: models.EventRequest,
			SourceIP: "10.0.0.1", HasGeo: true, Latitude: 39.0, Longitude: -77.0, StatusCode: 200},
	}
	vec := agg.Aggregate(context.Background(), "erin", events, businessAnchor)
	if vec.Get("geo_velocity") != 0 {
		t.Fatalf("expected zero velocity for stationary actor, got %v", vec.Get("geo_velocity"))
	}
}

func TestAggregateZeroAsOfAnchorsAtLatestEvent(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)

	latest := businessAnchor
	events := []models.Event{
		{Actor: "frank", Timestamp: latest.Add(-time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.1"},
		{Actor: "frank", Timestamp: latest, Type: models.EventLoginFailure, SourceIP: "10.0.0.1"},
	}
	vec := agg.Aggregate(context.Background(), "frank", events, time.Time{})
	if !vec.WindowEnd.Equal(latest) {
		t.Fatalf("expected window end %v, got %v", latest, vec.WindowEnd)
	}
	if vec.Get("login_failure_count") != 2 {
		t.Fatalf("unexpected failures: %v", vec.Get("login_failure_count"))
	}
}

func TestAggregateReputationUsesWorstIP(t *testing.T) {
	rep := reputation.Static{"10.0.0.1": 90, "185.220.101.1": 5}
	agg := NewAggregator(15*time.Minute, rep)

	events := []models.Event{
		{Actor: "gina", Timestamp: businessAnchor.Add(-2 * time.Minute), Type: models.EventLoginFailure, SourceIP: "10.0.0.1"},
		{Actor: "gina", Timestamp: businessAnchor.Add(-time.Minute), Type: models.EventLoginFailure, SourceIP: "185.220.101.1"},
	}
	vec := agg.Aggregate(context.Background(), "gina", events, businessAnchor)
	if vec.Get("ip_reputation_score") != 5 {
		t.Fatalf("expected worst-ip reputation 5, got %v", vec.Get("ip_reputation_score"))
	}
}

func TestAggregateWeekendFlag(t *testing.T) {
	agg := NewAggregator(15*time.Minute, nil)
	saturday := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)

	vec := agg.Aggregate(context.Background(), "hank", nil, saturday)
	if vec.Get("is_weekend") != 1 {
		t.Fatalf("expected weekend flag for Saturday")
	}
	if vec.Get("is_business_hours") != 1 {
		t.Fatalf("expected business hours at 11:00")
	}
}

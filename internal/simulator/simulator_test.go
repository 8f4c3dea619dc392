package simulator

import (
	"testing"
	"time"

	"socsentinel/internal/features"
	"socsentinel/pkg/models"
)

var simStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestBaselineIsDeterministicForSeed(t *testing.T) {
	a := New(42).Baseline(50, simStart)
	b := New(42).Baseline(50, simStart)

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Actor != b[i].Actor || !a[i].Timestamp.Equal(b[i].Timestamp) || a[i].Type != b[i].Type {
			t.Fatalf("event %d differs between identical seeds: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBruteForceShapeMatchesScenario(t *testing.T) {
	events := New(42).BruteForce("victim", simStart)
	if len(events) < 12 {
		t.Fatalf("expected at least 12 events, got %d", len(events))
	}

	ips := make(map[string]struct{})
	for _, e := range events {
		if e.Type != models.EventLoginFailure {
			t.Fatalf("expected only login failures, got %s", e.Type)
		}
		if e.Actor != "victim" {
			t.Fatalf("unexpected actor: %s", e.Actor)
		}
		if !e.HasGeo {
			t.Fatalf("attack events must carry geo coordinates")
		}
		if h := e.Timestamp.Hour(); h >= 9 && h < 17 {
			t.Fatalf("attack must run off-hours, got hour %d", h)
		}
		ips[e.SourceIP] = struct{}{}
	}
	if len(ips) < 2 {
		t.Fatalf("expected multiple source IPs, got %d", len(ips))
	}
}

func TestExfiltrationMovesLargeVolume(t *testing.T) {
	events := New(42).Exfiltration("victim", simStart)

	var total float64
	for _, e := range events {
		total += e.BytesSent
	}
	if total < 500000 {
		t.Fatalf("expected large outbound volume, got %v", total)
	}
	if events[0].Type != models.EventLoginSuccess {
		t.Fatalf("exfiltration must start with a successful login, got %s", events[0].Type)
	}
}

func TestDatasetLabelsBothClasses(t *testing.T) {
	agg := features.NewAggregator(15*time.Minute, nil)
	data, labels := New(42).Dataset(agg, 60, 10, simStart)

	if len(data) != len(labels) {
		t.Fatalf("data/label length mismatch: %d vs %d", len(data), len(labels))
	}
	var pos, neg int
	for _, l := range labels {
		if l == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		t.Fatalf("expected both classes, got pos=%d neg=%d", pos, neg)
	}

	for i, row := range data {
		if len(row) != len(models.FeatureNames) {
			t.Fatalf("row %d has width %d, want %d", i, len(row), len(models.FeatureNames))
		}
	}
}

func TestDatasetAttackRowsLookAnomalous(t *testing.T) {
	agg := features.NewAggregator(15*time.Minute, nil)
	data, labels := New(42).Dataset(agg, 40, 5, simStart)

	idx := models.FeatureIndex("login_failure_count")
	for i, row := range data {
		if labels[i] != 1 {
			continue
		}
		// Every attack scenario is either a failure burst or a transfer
		// burst; both leave a clear mark.
		if row[idx] < 12 && row[models.FeatureIndex("bytes_sent")] < 500000 {
			t.Fatalf("attack row %d looks benign: %v", i, row)
		}
	}
}

package alerts

import (
	"testing"

	"socsentinel/pkg/models"
)

func TestClassifyBoundariesAreExclusive(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		score    float64
		severity models.Severity
		ok       bool
	}{
		{0.99, models.SeverityCritical, true},
		{0.951, models.SeverityCritical, true},
		{0.95, models.SeverityHigh, true}, // exactly on critical stays HIGH
		{0.86, models.SeverityHigh, true},
		{0.85, models.SeverityMedium, true},
		{0.71, models.SeverityMedium, true},
		{0.70, models.SeverityLow, true},
		{0.51, models.SeverityLow, true},
		{0.50, "", false}, // exactly on low is suppressed
		{0.40, "", false},
		{0.0, "", false},
	}

	for _, c := range cases {
		severity, ok := th.Classify(c.score)
		if ok != c.ok || severity != c.severity {
			t.Fatalf("Classify(%v) = (%q, %v), want (%q, %v)", c.score, severity, ok, c.severity, c.ok)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds must validate: %v", err)
	}

	bad := []Thresholds{
		{Critical: 0.95, High: 0.95, Medium: 0.70, Low: 0.50}, // equal
		{Critical: 0.85, High: 0.95, Medium: 0.70, Low: 0.50}, // unordered
		{Critical: 0.95, High: 0.85, Medium: 0.70, Low: 0},    // low not positive
		{Critical: 1.1, High: 0.85, Medium: 0.70, Low: 0.50},  // above 1
	}
	for i, th := range bad {
		if err := th.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, th)
		}
	}
}

package alerts

import (
	"fmt"

	"socsentinel/pkg/models"
)

// Thresholds map ensemble scores onto severities. A score must strictly
// exceed a threshold to earn its severity, so a score sitting exactly on
// the critical threshold is still HIGH. Scores at or below Low are
// suppressed entirely.
type Thresholds struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
}

// DefaultThresholds returns the stock severity ladder.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 0.95, High: 0.85, Medium: 0.70, Low: 0.50}
}

// Validate rejects ladders that are not strictly descending in (0,1].
func (t Thresholds) Validate() error {
	if t.Low <= 0 {
		return fmt.Errorf("low threshold must be positive, got %.3f", t.Low)
	}
	if t.Critical > 1 {
		return fmt.Errorf("critical threshold must not exceed 1, got %.3f", t.Critical)
	}
	if !(t.Critical > t.High && t.High > t.Medium && t.Medium > t.Low) {
		return fmt.Errorf("thresholds must be strictly descending critical > high > medium > low")
	}
	return nil
}

// Classify maps a score to a severity. The second return value is false
// when the score is at or below the low threshold and no alert should be
// raised.
func (t Thresholds) Classify(score float64) (models.Severity, bool) {
	switch {
	case score > t.Critical:
		return models.SeverityCritical, true
	case score > t.High:
		return models.SeverityHigh, true
	case score > t.Medium:
		return models.SeverityMedium, true
	case score > t.Low:
		return models.SeverityLow, true
	default:
		return "", false
	}
}

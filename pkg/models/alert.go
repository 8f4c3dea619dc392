package models

import "time"

// Severity is the discrete alert tier derived from the anomaly score.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// AlertStatus is the lifecycle state of an alert. The engine only ever
// emits StatusNew; transitions are owned by the alert store.
type AlertStatus string

const (
	StatusNew           AlertStatus = "NEW"
	StatusInvestigating AlertStatus = "INVESTIGATING"
	StatusConfirmed     AlertStatus = "CONFIRMED"
	StatusFalsePositive AlertStatus = "FALSE_POSITIVE"
	StatusResolved      AlertStatus = "RESOLVED"
)

// Contribution is one feature's signed share of a model decision.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Weight  float64 `json:"weight"`
}

// ContributionBreakdown is the additive decomposition of a model's raw
// decision value: Baseline plus the sum of all Weights reconstructs
// RawOutput. Contributions are ordered by absolute weight descending,
// ties kept in feature declaration order.
type ContributionBreakdown struct {
	Model         string         `json:"model"`
	Baseline      float64        `json:"baseline"`
	RawOutput     float64        `json:"raw_output"`
	Contributions []Contribution `json:"contributions"`
}

// Alert is the immutable record handed to the alert store.
type Alert struct {
	AlertID     string      `json:"alert_id"`
	Actor       string      `json:"actor"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Score       float64     `json:"score"`
	Severity    Severity    `json:"severity"`
	Status      AlertStatus `json:"status"`

	// ScoreSource records which model paths produced the score; Degraded
	// is set when one path was unavailable.
	ScoreSource string `json:"score_source"`
	Degraded    bool   `json:"degraded,omitempty"`

	Narrative          string                 `json:"narrative,omitempty"`
	NarrativeAvailable bool                   `json:"narrative_available"`
	Breakdown          *ContributionBreakdown `json:"breakdown,omitempty"`

	Features  *FeatureVector `json:"features,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

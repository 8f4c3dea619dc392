package alerts

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"socsentinel/internal/explain"
	"socsentinel/internal/model"
	"socsentinel/pkg/models"
)

// Assembler turns scored windows into immutable alerts. Every alert gets
// a fresh UUID and starts in status NEW.
type Assembler struct {
	thresholds Thresholds
	now        func() time.Time
}

// NewAssembler validates the severity ladder up front so a bad config
// fails at startup instead of at the first alert.
func NewAssembler(t Thresholds) (*Assembler, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("severity thresholds: %w", err)
	}
	return &Assembler{thresholds: t, now: time.Now}, nil
}

// Classify exposes the assembler's severity ladder.
func (a *Assembler) Classify(score float64) (models.Severity, bool) {
	return a.thresholds.Classify(score)
}

// Input carries everything needed to assemble one alert.
type Input struct {
	Vector      *models.FeatureVector
	Result      model.Result
	Severity    models.Severity
	Explanation *explain.Explanation
}

// Assemble builds the final alert. A nil explanation yields an alert
// with NarrativeAvailable false; all other fields are always populated.
func (a *Assembler) Assemble(in Input) *models.Alert {
	alert := &models.Alert{
		AlertID:     uuid.NewString(),
		Actor:       in.Vector.Actor,
		WindowStart: in.Vector.WindowStart,
		WindowEnd:   in.Vector.WindowEnd,
		Score:       in.Result.Score,
		Severity:    in.Severity,
		Status:      models.StatusNew,
		ScoreSource: in.Result.Source,
		Degraded:    in.Result.Degraded,
		Features:    in.Vector,
		CreatedAt:   a.now().UTC(),
	}
	if in.Explanation != nil {
		alert.Narrative = in.Explanation.Narrative
		alert.NarrativeAvailable = true
		alert.Breakdown = &in.Explanation.Breakdown
	}
	return alert
}

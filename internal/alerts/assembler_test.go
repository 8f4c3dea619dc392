package alerts

import (
	"testing"
	"time"

	"socsentinel/internal/explain"
	"socsentinel/internal/model"
	"socsentinel/pkg/models"
)

func testVector() *models.FeatureVector {
	return &models.FeatureVector{
		Actor:       "alice",
		WindowStart: time.Date(2026, 3, 10, 13, 45, 0, 0, time.UTC),
		WindowEnd:   time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Values:      make([]float64, len(models.FeatureNames)),
	}
}

func TestAssembleProducesNewAlertWithUUID(t *testing.T) {
	asm, err := NewAssembler(DefaultThresholds())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	vec := testVector()
	alert := asm.Assemble(Input{
		Vector:   vec,
		Result:   model.Result{Score: 0.9, Source: model.SourceEnsemble},
		Severity: models.SeverityHigh,
		Explanation: &explain.Explanation{
			Narrative: "Suspicious activity driven primarily by elevated failed login volume (30.00).",
			Breakdown: models.ContributionBreakdown{Model: "supervised"},
		},
	})

	if alert.AlertID == "" {
		t.Fatalf("expected a generated alert id")
	}
	if alert.Status != models.StatusNew {
		t.Fatalf("new alerts must start in status NEW, got %s", alert.Status)
	}
	if alert.Severity != models.SeverityHigh || alert.Score != 0.9 {
		t.Fatalf("unexpected alert fields: %+v", alert)
	}
	if !alert.NarrativeAvailable || alert.Narrative == "" || alert.Breakdown == nil {
		t.Fatalf("expected narrative and breakdown on the alert")
	}
	if !alert.WindowStart.Equal(vec.WindowStart) || !alert.WindowEnd.Equal(vec.WindowEnd) {
		t.Fatalf("alert window must match the vector window")
	}
	if alert.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	second := asm.Assemble(Input{Vector: vec, Result: model.Result{Score: 0.9}, Severity: models.SeverityHigh})
	if second.AlertID == alert.AlertID {
		t.Fatalf("alert ids must be unique")
	}
}

func TestAssembleWithoutExplanation(t *testing.T) {
	asm, err := NewAssembler(DefaultThresholds())
	if err != nil {
		t.Fatalf("new assembler: %v", err)
	}

	alert := asm.Assemble(Input{
		Vector:   testVector(),
		Result:   model.Result{Score: 0.72, Source: model.SourceUnsupervisedOnly, Degraded: true},
		Severity: models.SeverityMedium,
	})

	if alert.NarrativeAvailable || alert.Narrative != "" || alert.Breakdown != nil {
		t.Fatalf("expected narrative-less alert, got %+v", alert)
	}
	if !alert.Degraded || alert.ScoreSource != model.SourceUnsupervisedOnly {
		t.Fatalf("expected degraded score source to carry through, got %+v", alert)
	}
}

func TestNewAssemblerRejectsBadThresholds(t *testing.T) {
	if _, err := NewAssembler(Thresholds{Critical: 0.5, High: 0.6, Medium: 0.7, Low: 0.8}); err == nil {
		t.Fatalf("expected error for inverted thresholds")
	}
}

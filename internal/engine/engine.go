package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socsentinel/internal/alerts"
	"socsentinel/internal/explain"
	"socsentinel/internal/features"
	"socsentinel/internal/logger"
	"socsentinel/internal/model"
	"socsentinel/internal/reputation"
	"socsentinel/pkg/models"
)

// Config wires the detection engine.
type Config struct {
	Window             time.Duration
	UnsupervisedWeight float64
	SupervisedWeight   float64
	Thresholds         alerts.Thresholds
	Reputation         reputation.Provider
}

// Engine runs the full detection flow for one (actor, window) pair:
// aggregate events into a feature vector, score it, classify severity,
// explain the decision and assemble the alert.
type Engine struct {
	aggregator *features.Aggregator
	ensemble   model.Ensemble
	assembler  *alerts.Assembler
}

// New validates the configuration and builds an engine. Errors here are
// fatal at startup.
func New(cfg Config) (*Engine, error) {
	ens, err := model.NewEnsemble(cfg.UnsupervisedWeight, cfg.SupervisedWeight)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	asm, err := alerts.NewAssembler(cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Engine{
		aggregator: features.NewAggregator(cfg.Window, cfg.Reputation),
		ensemble:   ens,
		assembler:  asm,
	}, nil
}

// Aggregator exposes the engine's feature aggregator, used by training
// to build vectors with the exact same semantics as inference.
func (e *Engine) Aggregator() *features.Aggregator {
	return e.aggregator
}

// ScoreAndExplain evaluates an actor's recent events against the
// snapshot. It returns (nil, nil) when the score falls at or below the
// suppression threshold. An unsupported explanation downgrades the alert
// to narrative-less instead of failing it.
func (e *Engine) ScoreAndExplain(ctx context.Context, actor string, events []models.Event, snap *model.Snapshot) (*models.Alert, error) {
	return e.ScoreAndExplainAt(ctx, actor, events, time.Time{}, snap)
}

// ScoreAndExplainAt is ScoreAndExplain with an explicit window anchor.
// A zero asOf anchors the window at the latest event.
func (e *Engine) ScoreAndExplainAt(ctx context.Context, actor string, events []models.Event, asOf time.Time, snap *model.Snapshot) (*models.Alert, error) {
	vec := e.aggregator.Aggregate(ctx, actor, events, asOf)

	result, err := e.ensemble.Score(snap, vec.Values)
	if err != nil {
		return nil, err
	}
	if result.Degraded {
		logger.Warnf("scoring %s in degraded mode (%s)", actor, result.Source)
	}

	severity, ok := e.assembler.Classify(result.Score)
	if !ok {
		return nil, nil
	}

	exp, err := explain.Explain(snap, vec)
	if err != nil {
		if !errors.Is(err, explain.ErrExplanationUnsupported) {
			return nil, err
		}
		logger.Warnf("no explanation for %s: %v", actor, err)
		exp = nil
	}

	return e.assembler.Assemble(alerts.Input{
		Vector:      vec,
		Result:      result,
		Severity:    severity,
		Explanation: exp,
	}), nil
}

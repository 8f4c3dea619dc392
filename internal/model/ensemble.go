package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrModelUnavailable means neither scoring path is present in the
	// snapshot. No alert can be produced; the caller may retry once a
	// snapshot is available.
	ErrModelUnavailable = errors.New("no scoring model available")

	// ErrInvalidFeatureVector means the caller handed a vector that does
	// not match the snapshot's feature contract. Always a caller bug.
	ErrInvalidFeatureVector = errors.New("invalid feature vector")
)

// Score sources recorded on alerts.
const (
	SourceEnsemble         = "ensemble"
	SourceUnsupervisedOnly = "unsupervised_only"
	SourceSupervisedOnly   = "supervised_only"
)

// Ensemble combines the unsupervised and supervised scoring paths with a
// weighted average of their independently normalized scores.
type Ensemble struct {
	UnsupervisedWeight float64
	SupervisedWeight   float64
}

// NewEnsemble validates the combination weights.
func NewEnsemble(unsupervised, supervised float64) (Ensemble, error) {
	if unsupervised < 0 || supervised < 0 {
		return Ensemble{}, fmt.Errorf("ensemble weights must be non-negative, got %.3f/%.3f", unsupervised, supervised)
	}
	if unsupervised+supervised <= 0 {
		return Ensemble{}, fmt.Errorf("ensemble weights must have a positive sum")
	}
	return Ensemble{UnsupervisedWeight: unsupervised, SupervisedWeight: supervised}, nil
}

// Result is one scored vector.
type Result struct {
	Score        float64
	Source       string
	Degraded     bool
	Unsupervised float64
	Supervised   float64
}

// Score evaluates x against the snapshot. Scoring is pure and
// deterministic: identical snapshot and vector yield a bit-identical
// score. If one path is missing the other is used alone and the result
// is flagged degraded; if both are missing ErrModelUnavailable is
// returned.
func (e Ensemble) Score(snap *Snapshot, x []float64) (Result, error) {
	if !snap.HasModels() {
		return Result{}, ErrModelUnavailable
	}
	if len(x) != len(snap.FeatureNames) {
		return Result{}, fmt.Errorf("%w: got %d values, snapshot expects %d", ErrInvalidFeatureVector, len(x), len(snap.FeatureNames))
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: non-finite value for %s", ErrInvalidFeatureVector, snap.FeatureNames[i])
		}
	}

	switch {
	case snap.Unsupervised != nil && snap.Supervised != nil:
		u := snap.Unsupervised.Normalized(x)
		s := snap.Supervised.Predict(x)
		score := (e.UnsupervisedWeight*u + e.SupervisedWeight*s) /
			(e.UnsupervisedWeight + e.SupervisedWeight)
		return Result{Score: score, Source: SourceEnsemble, Unsupervised: u, Supervised: s}, nil

	case snap.Unsupervised != nil:
		u := snap.Unsupervised.Normalized(x)
		return Result{Score: u, Source: SourceUnsupervisedOnly, Degraded: true, Unsupervised: u}, nil

	default:
		s := snap.Supervised.Predict(x)
		return Result{Score: s, Source: SourceSupervisedOnly, Degraded: true, Supervised: s}, nil
	}
}

package explain

import (
	"errors"
	"fmt"
	"sort"

	"socsentinel/internal/model"
	"socsentinel/pkg/models"
)

// ErrExplanationUnsupported means the snapshot carries no model whose
// decision can be decomposed. Alerts are still emitted without a
// narrative in that case.
var ErrExplanationUnsupported = errors.New("explanation unsupported for loaded model")

// Explanation pairs an additive contribution breakdown with a short
// analyst-facing narrative.
type Explanation struct {
	Breakdown models.ContributionBreakdown
	Narrative string
}

// Explain decomposes the model's decision for vec into per-feature
// contributions. The supervised path is preferred when present because
// its output is the probability the score is built from; otherwise the
// isolation forest's path-length decomposition is used. Baseline plus
// the sum of contribution weights reconstructs the decomposed raw output.
func Explain(snap *model.Snapshot, vec *models.FeatureVector) (*Explanation, error) {
	if snap == nil {
		return nil, ErrExplanationUnsupported
	}
	if len(vec.Values) != len(snap.FeatureNames) {
		return nil, fmt.Errorf("%w: got %d values, snapshot expects %d",
			model.ErrInvalidFeatureVector, len(vec.Values), len(snap.FeatureNames))
	}

	var (
		source   string
		baseline float64
		weights  []float64
	)
	switch {
	case snap.Supervised != nil:
		source = "supervised"
		baseline, weights = snap.Supervised.Contributions(vec.Values)
	case snap.Unsupervised != nil:
		source = "unsupervised"
		baseline, weights = snap.Unsupervised.Contributions(vec.Values)
	default:
		return nil, ErrExplanationUnsupported
	}

	contribs := make([]models.Contribution, len(weights))
	raw := baseline
	for i, w := range weights {
		contribs[i] = models.Contribution{
			Feature: snap.FeatureNames[i],
			Value:   vec.Values[i],
			Weight:  w,
		}
		raw += w
	}

	// Rank by absolute weight; ties keep feature declaration order.
	sort.SliceStable(contribs, func(i, j int) bool {
		return abs(contribs[i].Weight) > abs(contribs[j].Weight)
	})

	breakdown := models.ContributionBreakdown{
		Model:         source,
		Baseline:      baseline,
		RawOutput:     raw,
		Contributions: contribs,
	}

	return &Explanation{
		Breakdown: breakdown,
		Narrative: narrative(breakdown),
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

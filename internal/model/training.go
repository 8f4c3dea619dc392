package model

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// TrainingOptions controls out-of-band snapshot training. Zero values
// take the defaults below.
type TrainingOptions struct {
	Seed           int64
	IsolationTrees int
	SampleSize     int
	ForestTrees    int
	MaxDepth       int
	MinLeaf        int
}

func (o *TrainingOptions) applyDefaults() {
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.IsolationTrees <= 0 {
		o.IsolationTrees = 100
	}
	if o.ForestTrees <= 0 {
		o.ForestTrees = 50
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 10
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = 2
	}
}

// Train fits a new immutable snapshot. The isolation forest is always
// fitted; the supervised forest only when labels carry both classes
// (label 1 = malicious). Pass nil labels for unsupervised-only training.
func Train(data [][]float64, labels []int, featureNames []string, opts TrainingOptions) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(featureNames) == 0 {
		return nil, fmt.Errorf("no feature names")
	}
	for i, row := range data {
		if len(row) != len(featureNames) {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(featureNames))
		}
	}

	opts.applyDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	snap := &Snapshot{
		Version:      fmt.Sprintf("%d", time.Now().Unix()),
		TrainedAt:    time.Now().UTC(),
		FeatureNames: append([]string(nil), featureNames...),
	}
	snap.BackgroundMean, snap.BackgroundStd = backgroundStats(data)

	snap.Unsupervised = FitIsolationForest(data, IsolationForestOptions{
		Trees:      opts.IsolationTrees,
		SampleSize: opts.SampleSize,
	}, rng)

	if len(labels) > 0 {
		if len(labels) != len(data) {
			return nil, fmt.Errorf("labels length %d does not match %d rows", len(labels), len(data))
		}
		pos := 0
		for _, l := range labels {
			if l == 1 {
				pos++
			}
		}
		if pos > 0 && pos < len(labels) {
			forest, err := FitRandomForest(data, labels, RandomForestOptions{
				Trees:    opts.ForestTrees,
				MaxDepth: opts.MaxDepth,
				MinLeaf:  opts.MinLeaf,
			}, rng)
			if err != nil {
				return nil, err
			}
			snap.Supervised = forest
		}
	}

	return snap, nil
}

func backgroundStats(data [][]float64) (mean, std []float64) {
	dims := len(data[0])
	mean = make([]float64, dims)
	std = make([]float64, dims)

	for _, row := range data {
		for f, v := range row {
			mean[f] += v
		}
	}
	n := float64(len(data))
	for f := range mean {
		mean[f] /= n
	}
	for _, row := range data {
		for f, v := range row {
			d := v - mean[f]
			std[f] += d * d
		}
	}
	for f := range std {
		std[f] = math.Sqrt(std[f] / n)
	}
	return mean, std
}

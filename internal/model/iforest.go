package model

import (
	"math"
	"math/rand"
)

// IsoNode is one node of an isolation tree. Field names are short in
// JSON to keep snapshot files compact.
type IsoNode struct {
	Feature int      `json:"f,omitempty"`
	Split   float64  `json:"s,omitempty"`
	Left    *IsoNode `json:"l,omitempty"`
	Right   *IsoNode `json:"r,omitempty"`
	Size    int      `json:"n"`
	Depth   int      `json:"d,omitempty"`
}

// IsolationForest is the unsupervised scoring path: an ensemble of
// randomly built isolation trees. Anomalous points isolate in fewer
// splits, so shorter expected path lengths mean higher anomaly. RawMin
// and RawMax record the raw score range observed on the training set and
// drive min-max normalization at inference time.
type IsolationForest struct {
	Trees      []*IsoNode `json:"trees"`
	SampleSize int        `json:"sample_size"`
	RawMin     float64    `json:"raw_min"`
	RawMax     float64    `json:"raw_max"`
}

// IsolationForestOptions controls training.
type IsolationForestOptions struct {
	Trees      int
	SampleSize int
}

// cFactor is the average path length of an unsuccessful BST search over
// n points, the standard isolation-forest normalizer.
func cFactor(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	nf := float64(n)
	h := math.Log(nf-1) + 0.5772156649015329
	return 2*h - 2*(nf-1)/nf
}

// FitIsolationForest trains a forest over unlabeled rows. Training is
// deterministic for a given rng seed; inference never touches the rng.
func FitIsolationForest(data [][]float64, opts IsolationForestOptions, rng *rand.Rand) *IsolationForest {
	if opts.Trees <= 0 {
		opts.Trees = 100
	}
	if opts.SampleSize <= 0 || opts.SampleSize > len(data) {
		opts.SampleSize = len(data)
		if opts.SampleSize > 256 {
			opts.SampleSize = 256
		}
	}

	maxDepth := int(math.Ceil(math.Log2(float64(opts.SampleSize) + 1)))
	forest := &IsolationForest{
		Trees:      make([]*IsoNode, 0, opts.Trees),
		SampleSize: opts.SampleSize,
	}

	for i := 0; i < opts.Trees; i++ {
		perm := rng.Perm(len(data))
		sample := make([][]float64, opts.SampleSize)
		for j := 0; j < opts.SampleSize; j++ {
			sample[j] = data[perm[j]]
		}
		forest.Trees = append(forest.Trees, buildIsoTree(sample, 0, maxDepth, rng))
	}

	forest.RawMin, forest.RawMax = math.Inf(1), math.Inf(-1)
	for _, row := range data {
		raw := forest.RawScore(row)
		if raw < forest.RawMin {
			forest.RawMin = raw
		}
		if raw > forest.RawMax {
			forest.RawMax = raw
		}
	}

	return forest
}

func buildIsoTree(rows [][]float64, depth, maxDepth int, rng *rand.Rand) *IsoNode {
	node := &IsoNode{Size: len(rows), Depth: depth}
	if len(rows) <= 1 || depth >= maxDepth {
		return node
	}

	dims := len(rows[0])
	splittable := make([]int, 0, dims)
	mins := make([]float64, dims)
	maxs := make([]float64, dims)
	for f := 0; f < dims; f++ {
		mins[f], maxs[f] = rows[0][f], rows[0][f]
		for _, row := range rows[1:] {
			if row[f] < mins[f] {
				mins[f] = row[f]
			}
			if row[f] > maxs[f] {
				maxs[f] = row[f]
			}
		}
		if maxs[f] > mins[f] {
			splittable = append(splittable, f)
		}
	}
	if len(splittable) == 0 {
		return node
	}

	f := splittable[rng.Intn(len(splittable))]
	split := mins[f] + rng.Float64()*(maxs[f]-mins[f])

	var left, right [][]float64
	for _, row := range rows {
		if row[f] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return node
	}

	node.Feature = f
	node.Split = split
	node.Left = buildIsoTree(left, depth+1, maxDepth, rng)
	node.Right = buildIsoTree(right, depth+1, maxDepth, rng)
	return node
}

// pathLength returns the expected isolation depth of x in one tree.
func (n *IsoNode) pathLength(x []float64) float64 {
	node := n
	for node.Left != nil && node.Right != nil {
		if x[node.Feature] < node.Split {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return float64(node.Depth) + cFactor(node.Size)
}

// meanPathLength averages the isolation depth over all trees.
func (f *IsolationForest) meanPathLength(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		sum += t.pathLength(x)
	}
	return sum / float64(len(f.Trees))
}

// RawScore is the canonical isolation-forest anomaly measure
// 2^(-E[h(x)]/c(n)) in (0,1), larger meaning more anomalous.
func (f *IsolationForest) RawScore(x []float64) float64 {
	c := cFactor(f.SampleSize)
	if c <= 0 {
		return 0
	}
	return math.Pow(2, -f.meanPathLength(x)/c)
}

// Normalized maps the raw score onto [0,1] against the training range,
// clamping values outside it. Points more extreme than anything seen at
// training time score 1.
func (f *IsolationForest) Normalized(x []float64) float64 {
	denom := f.RawMax - f.RawMin
	if denom < 1e-12 {
		denom = 1e-12
	}
	v := (f.RawScore(x) - f.RawMin) / denom
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Contributions decomposes the forest's decision for x into additive
// per-feature weights. The decomposed raw value is the negated expected
// path length, so positive weights push toward anomalous; baseline plus
// the sum of weights reconstructs it exactly.
func (f *IsolationForest) Contributions(x []float64) (baseline float64, weights []float64) {
	weights = make([]float64, len(x))
	if len(f.Trees) == 0 {
		return 0, weights
	}

	for _, t := range f.Trees {
		node := t
		value := float64(node.Depth) + cFactor(node.Size)
		baseline -= value
		for node.Left != nil && node.Right != nil {
			next := node.Right
			if x[node.Feature] < node.Split {
				next = node.Left
			}
			nextValue := float64(next.Depth) + cFactor(next.Size)
			weights[node.Feature] -= nextValue - value
			node, value = next, nextValue
		}
	}

	n := float64(len(f.Trees))
	baseline /= n
	for i := range weights {
		weights[i] /= n
	}
	return baseline, weights
}

package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DecisionNode is one node of a classification tree. Value is the
// malicious-class fraction of the training rows that reached the node,
// which makes path attribution additive by construction.
type DecisionNode struct {
	Feature int           `json:"f,omitempty"`
	Split   float64       `json:"s,omitempty"`
	Left    *DecisionNode `json:"l,omitempty"`
	Right   *DecisionNode `json:"r,omitempty"`
	Value   float64       `json:"v"`
	Size    int           `json:"n"`
}

// RandomForest is the supervised scoring path: a bagged ensemble of
// gini-split classification trees over labeled attack/benign rows.
type RandomForest struct {
	Trees       []*DecisionNode `json:"trees"`
	NumFeatures int             `json:"num_features"`
}

// RandomForestOptions controls training.
type RandomForestOptions struct {
	Trees    int
	MaxDepth int
	MinLeaf  int
}

// FitRandomForest trains a forest on labeled rows (label 1 = malicious).
// Both classes must be present. Deterministic for a given rng seed.
func FitRandomForest(data [][]float64, labels []int, opts RandomForestOptions, rng *rand.Rand) (*RandomForest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(labels) != len(data) {
		return nil, fmt.Errorf("labels length %d does not match %d rows", len(labels), len(data))
	}
	pos := 0
	for _, l := range labels {
		if l == 1 {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return nil, fmt.Errorf("training labels must contain both classes")
	}

	if opts.Trees <= 0 {
		opts.Trees = 50
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 10
	}
	if opts.MinLeaf <= 0 {
		opts.MinLeaf = 2
	}

	dims := len(data[0])
	forest := &RandomForest{
		Trees:       make([]*DecisionNode, 0, opts.Trees),
		NumFeatures: dims,
	}

	for i := 0; i < opts.Trees; i++ {
		indices := make([]int, len(data))
		for j := range indices {
			indices[j] = rng.Intn(len(data))
		}
		forest.Trees = append(forest.Trees, buildDecisionTree(data, labels, indices, 0, opts, rng))
	}

	return forest, nil
}

func buildDecisionTree(data [][]float64, labels []int, indices []int, depth int, opts RandomForestOptions, rng *rand.Rand) *DecisionNode {
	node := &DecisionNode{
		Size:  len(indices),
		Value: positiveFraction(labels, indices),
	}
	if depth >= opts.MaxDepth || len(indices) < 2*opts.MinLeaf || node.Value == 0 || node.Value == 1 {
		return node
	}

	dims := len(data[0])
	k := int(math.Sqrt(float64(dims)))
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(dims)

	bestGini := math.Inf(1)
	bestFeature, bestSplit := -1, 0.0
	for _, f := range perm[:k] {
		split, gini, ok := bestSplitForFeature(data, labels, indices, f, opts.MinLeaf)
		if ok && gini < bestGini {
			bestGini = gini
			bestFeature = f
			bestSplit = split
		}
	}
	if bestFeature < 0 || bestGini >= giniImpurity(node.Value) {
		return node
	}

	var left, right []int
	for _, idx := range indices {
		if data[idx][bestFeature] < bestSplit {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < opts.MinLeaf || len(right) < opts.MinLeaf {
		return node
	}

	node.Feature = bestFeature
	node.Split = bestSplit
	node.Left = buildDecisionTree(data, labels, left, depth+1, opts, rng)
	node.Right = buildDecisionTree(data, labels, right, depth+1, opts, rng)
	return node
}

// bestSplitForFeature scans midpoints between consecutive distinct
// values and returns the threshold with the lowest weighted gini.
func bestSplitForFeature(data [][]float64, labels []int, indices []int, feature, minLeaf int) (split, gini float64, ok bool) {
	type pair struct {
		v     float64
		label int
	}
	pairs := make([]pair, len(indices))
	totalPos := 0
	for i, idx := range indices {
		pairs[i] = pair{v: data[idx][feature], label: labels[idx]}
		totalPos += labels[idx]
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	n := len(pairs)
	best := math.Inf(1)
	leftPos := 0
	for i := 1; i < n; i++ {
		leftPos += pairs[i-1].label
		if pairs[i].v == pairs[i-1].v {
			continue
		}
		if i < minLeaf || n-i < minLeaf {
			continue
		}

		pl := float64(leftPos) / float64(i)
		pr := float64(totalPos-leftPos) / float64(n-i)
		weighted := (float64(i)*giniImpurity(pl) + float64(n-i)*giniImpurity(pr)) / float64(n)
		if weighted < best {
			best = weighted
			split = (pairs[i-1].v + pairs[i].v) / 2
		}
	}
	if math.IsInf(best, 1) {
		return 0, 0, false
	}
	return split, best, true
}

func giniImpurity(p float64) float64 {
	return 1 - p*p - (1-p)*(1-p)
}

func positiveFraction(labels []int, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	pos := 0
	for _, idx := range indices {
		pos += labels[idx]
	}
	return float64(pos) / float64(len(indices))
}

// Predict returns the malicious probability for x: the mean leaf value
// over all trees, in [0,1].
func (f *RandomForest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range f.Trees {
		node := t
		for node.Left != nil && node.Right != nil {
			if x[node.Feature] < node.Split {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		sum += node.Value
	}
	return sum / float64(len(f.Trees))
}

// Contributions decomposes Predict(x) into additive per-feature weights:
// baseline (mean root value over trees) plus the sum of weights equals
// the predicted probability exactly.
func (f *RandomForest) Contributions(x []float64) (baseline float64, weights []float64) {
	weights = make([]float64, f.NumFeatures)
	if len(f.Trees) == 0 {
		return 0, weights
	}

	for _, t := range f.Trees {
		node := t
		baseline += node.Value
		for node.Left != nil && node.Right != nil {
			next := node.Right
			if x[node.Feature] < node.Split {
				next = node.Left
			}
			weights[node.Feature] += next.Value - node.Value
			node = next
		}
	}

	n := float64(len(f.Trees))
	baseline /= n
	for i := range weights {
		weights[i] /= n
	}
	return baseline, weights
}

package model

import (
	"math"
	"math/rand"
	"testing"
)

// benignCluster returns tight rows around a center plus the dimensions.
func benignCluster(rng *rand.Rand, n, dims int) [][]float64 {
	data := make([][]float64, n)
	for i := range data {
		row := make([]float64, dims)
		for f := range row {
			row[f] = 10 + rng.NormFloat64()
		}
		data[i] = row
	}
	return data
}

func TestIsolationForestSeparatesOutlier(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := benignCluster(rng, 300, 4)

	forest := FitIsolationForest(data, IsolationForestOptions{Trees: 100}, rng)

	inlier := []float64{10, 10, 10, 10}
	outlier := []float64{500, 500, 500, 500}

	if forest.RawScore(outlier) <= forest.RawScore(inlier) {
		t.Fatalf("expected outlier raw score above inlier: %v vs %v",
			forest.RawScore(outlier), forest.RawScore(inlier))
	}
	if got := forest.Normalized(outlier); got != 1 {
		t.Fatalf("expected extreme outlier to clamp to 1, got %v", got)
	}
}

func TestIsolationForestNormalizedStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := benignCluster(rng, 200, 3)
	forest := FitIsolationForest(data, IsolationForestOptions{Trees: 50}, rng)

	probe := rand.New(rand.NewSource(99))
	for i := 0; i < 100; i++ {
		x := []float64{probe.Float64() * 100, probe.Float64() * 100, probe.Float64() * 100}
		v := forest.Normalized(x)
		if v < 0 || v > 1 {
			t.Fatalf("normalized score out of range: %v", v)
		}
	}
}

func TestIsolationForestDeterministicForSeed(t *testing.T) {
	data := benignCluster(rand.New(rand.NewSource(1)), 150, 4)

	a := FitIsolationForest(data, IsolationForestOptions{Trees: 30}, rand.New(rand.NewSource(42)))
	b := FitIsolationForest(data, IsolationForestOptions{Trees: 30}, rand.New(rand.NewSource(42)))

	x := []float64{12, 8, 11, 9}
	if a.RawScore(x) != b.RawScore(x) {
		t.Fatalf("same seed should give bit-identical scores: %v vs %v", a.RawScore(x), b.RawScore(x))
	}
}

func TestIsolationForestContributionsAreAdditive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := benignCluster(rng, 200, 5)
	forest := FitIsolationForest(data, IsolationForestOptions{Trees: 50}, rng)

	for _, x := range [][]float64{
		{10, 10, 10, 10, 10},
		{100, 10, 10, 10, 10},
		{0, 0, 0, 0, 0},
	} {
		baseline, weights := forest.Contributions(x)
		sum := baseline
		for _, w := range weights {
			sum += w
		}
		// The decomposed value is the negated mean path length.
		want := -forest.meanPathLength(x)
		if math.Abs(sum-want) > 1e-9 {
			t.Fatalf("contributions not additive: baseline+weights=%v want %v", sum, want)
		}
	}
}

func TestIsolationForestOutlierFeatureGetsPositiveWeight(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := benignCluster(rng, 300, 4)
	forest := FitIsolationForest(data, IsolationForestOptions{Trees: 100}, rng)

	// Only feature 2 is anomalous.
	x := []float64{10, 10, 1000, 10}
	_, weights := forest.Contributions(x)

	for f, w := range weights {
		if f == 2 {
			continue
		}
		if weights[2] <= w {
			t.Fatalf("expected feature 2 to dominate, got weights %v", weights)
		}
	}
	if weights[2] <= 0 {
		t.Fatalf("expected positive weight for anomalous feature, got %v", weights[2])
	}
}

func TestCFactor(t *testing.T) {
	if cFactor(0) != 0 || cFactor(1) != 0 {
		t.Fatalf("cFactor must be zero for n<=1")
	}
	if cFactor(2) != 1 {
		t.Fatalf("cFactor(2) must be 1, got %v", cFactor(2))
	}
	if cFactor(256) <= cFactor(16) {
		t.Fatalf("cFactor must grow with n")
	}
}

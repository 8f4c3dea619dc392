package model

import (
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

// Snapshot is one immutable trained-model generation. It bundles both
// scoring paths, the feature contract they were fitted against, and the
// background statistics used as the explanation reference. Snapshots are
// never mutated after training; reloads swap in a whole new value.
type Snapshot struct {
	Version      string           `json:"version"`
	TrainedAt    time.Time        `json:"trained_at"`
	FeatureNames []string         `json:"feature_names"`
	Unsupervised *IsolationForest `json:"unsupervised,omitempty"`
	Supervised   *RandomForest    `json:"supervised,omitempty"`

	// BackgroundMean and BackgroundStd summarize the training
	// distribution per feature, in feature declaration order.
	BackgroundMean []float64 `json:"background_mean"`
	BackgroundStd  []float64 `json:"background_std"`
}

// HasModels reports whether at least one scoring path is present.
func (s *Snapshot) HasModels() bool {
	return s != nil && (s.Unsupervised != nil || s.Supervised != nil)
}

// Validate checks internal consistency of a decoded snapshot.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("nil snapshot")
	}
	if len(s.FeatureNames) == 0 {
		return fmt.Errorf("snapshot has no feature names")
	}
	if !s.HasModels() {
		return fmt.Errorf("snapshot carries no trained model")
	}
	if s.Supervised != nil && s.Supervised.NumFeatures != len(s.FeatureNames) {
		return fmt.Errorf("supervised model expects %d features, snapshot declares %d",
			s.Supervised.NumFeatures, len(s.FeatureNames))
	}
	if len(s.BackgroundMean) != 0 && len(s.BackgroundMean) != len(s.FeatureNames) {
		return fmt.Errorf("background mean width %d does not match %d features",
			len(s.BackgroundMean), len(s.FeatureNames))
	}
	return nil
}

// Encode writes the snapshot as gzip-compressed JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(s); err != nil {
		gz.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a gzip-compressed JSON snapshot and validates it.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open snapshot stream: %w", err)
	}
	defer gz.Close()

	var snap Snapshot
	if err := json.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

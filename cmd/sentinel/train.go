package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"

	"socsentinel/internal/engine"
	"socsentinel/internal/logger"
	"socsentinel/internal/model"
	"socsentinel/internal/simulator"
	"socsentinel/pkg/models"
)

var (
	trainSeed    int64
	trainBenign  int
	trainAttacks int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model snapshot on simulated telemetry and save it",
	Run: func(cmd *cobra.Command, args []string) {
		runTrain()
	},
}

func init() {
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 42, "simulator and training RNG seed")
	trainCmd.Flags().IntVar(&trainBenign, "benign", 400, "number of benign training windows")
	trainCmd.Flags().IntVar(&trainAttacks, "attacks", 40, "number of attack scenarios (two windows each)")
}

func runTrain() {
	cfg := loadConfig()
	ctx := context.Background()

	eng, err := engine.New(engine.Config{
		Window:             cfg.Sentinel.Engine.Window,
		UnsupervisedWeight: cfg.Sentinel.Engine.UnsupervisedWeight,
		SupervisedWeight:   cfg.Sentinel.Engine.SupervisedWeight,
		Thresholds:         thresholdsFromConfig(cfg),
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	sim := simulator.New(trainSeed)
	data, labels := sim.Dataset(eng.Aggregator(), trainBenign, trainAttacks, time.Now().UTC())
	logger.Infof("Training on %d windows (%d attack)", len(data), countOnes(labels))

	snap, err := model.Train(data, labels, models.FeatureNames, model.TrainingOptions{Seed: trainSeed})
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create model store: %v", err)
	}
	if err := store.Save(ctx, snap); err != nil {
		log.Fatalf("Failed to save snapshot: %v", err)
	}

	logger.Infof("Snapshot saved: version=%s supervised=%t", snap.Version, snap.Supervised != nil)
}

func countOnes(labels []int) int {
	n := 0
	for _, l := range labels {
		if l == 1 {
			n++
		}
	}
	return n
}

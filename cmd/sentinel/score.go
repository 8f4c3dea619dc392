package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"socsentinel/internal/engine"
	"socsentinel/internal/logger"
	"socsentinel/internal/transform"
	"socsentinel/pkg/models"
)

var scoreInput string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a JSONL event file once and print alerts to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		runScore()
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "JSONL event file (default stdin)")
}

// runScore replays a file of raw events through the engine, grouping by
// actor and scoring each actor's full history once.
func runScore() {
	cfg := loadConfig()
	ctx := context.Background()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create model store: %v", err)
	}
	snap, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load model snapshot: %v", err)
	}

	rep, repCleanup, err := buildReputation(cfg)
	if err != nil {
		log.Fatalf("Failed to create reputation provider: %v", err)
	}
	defer repCleanup()

	eng, err := engine.New(engine.Config{
		Window:             cfg.Sentinel.Engine.Window,
		UnsupervisedWeight: cfg.Sentinel.Engine.UnsupervisedWeight,
		SupervisedWeight:   cfg.Sentinel.Engine.SupervisedWeight,
		Thresholds:         thresholdsFromConfig(cfg),
		Reputation:         rep,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	in := os.Stdin
	if scoreInput != "" {
		f, err := os.Open(scoreInput)
		if err != nil {
			log.Fatalf("Failed to open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	byActor := make(map[string][]models.Event)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := transform.Parse(line)
		if err != nil {
			logger.Warnf("Skipping unparseable event: %v", err)
			continue
		}
		byActor[event.Actor] = append(byActor[event.Actor], *event)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	emitted := 0
	for actor, events := range byActor {
		alert, err := eng.ScoreAndExplain(ctx, actor, events, snap)
		if err != nil {
			logger.Errorf("Failed to score %s: %v", actor, err)
			continue
		}
		if alert == nil {
			continue
		}
		if err := enc.Encode(alert); err != nil {
			log.Fatalf("Failed to encode alert: %v", err)
		}
		emitted++
	}

	fmt.Fprintf(os.Stderr, "scored actors=%d alerts=%d\n", len(byActor), emitted)
}

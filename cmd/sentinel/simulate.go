package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	inputredis "socsentinel/internal/input/redis"
	"socsentinel/internal/logger"
	"socsentinel/internal/simulator"
	"socsentinel/pkg/models"
)

var (
	simSeed     int64
	simInterval time.Duration
	simToRedis  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Emit synthetic telemetry to stdout or the Redis input queue",
	Run: func(cmd *cobra.Command, args []string) {
		runSimulate()
	},
}

func init() {
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 42, "simulator RNG seed")
	simulateCmd.Flags().DurationVar(&simInterval, "interval", time.Second, "delay between events")
	simulateCmd.Flags().BoolVar(&simToRedis, "redis", false, "push events to the configured Redis input queue")
}

func runSimulate() {
	cfg := loadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var emit func(models.Event) error
	if simToRedis {
		pub, err := inputredis.NewPublisher(inputredis.Config{
			Addr:     cfg.Sentinel.Input.Redis.Addr,
			Password: cfg.Sentinel.Input.Redis.Password,
			DB:       cfg.Sentinel.Input.Redis.DB,
			Key:      cfg.Sentinel.Input.Redis.Key,
		})
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
		defer pub.Close()

		emit = func(e models.Event) error {
			data, err := json.Marshal(e)
			if err != nil {
				return err
			}
			return pub.Push(ctx, data)
		}
		logger.Infof("Simulating to redis queue %s", cfg.Sentinel.Input.Redis.Key)
	} else {
		enc := json.NewEncoder(os.Stdout)
		emit = func(e models.Event) error {
			return enc.Encode(e)
		}
	}

	sim := simulator.New(simSeed)
	if err := sim.Stream(ctx, simInterval, emit); err != nil && err != context.Canceled {
		log.Fatalf("Simulator error: %v", err)
	}
}

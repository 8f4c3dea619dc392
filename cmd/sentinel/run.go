package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"socsentinel/config"
	"socsentinel/internal/engine"
	inputredis "socsentinel/internal/input/redis"
	"socsentinel/internal/logger"
	"socsentinel/internal/metrics"
	"socsentinel/internal/modelstore"
	"socsentinel/internal/output/alertclickhouse"
	"socsentinel/internal/output/alerthttp"
	"socsentinel/internal/output/alertjson"
	"socsentinel/internal/output/alertpg"
	"socsentinel/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the streaming detection pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		runPipeline()
	},
}

func buildWriter(cfg *config.Config) pipeline.AlertWriter {
	out := cfg.Sentinel.Output
	switch out.Mode {
	case "file":
		w, err := alertjson.NewWriter(out.File.Path)
		if err != nil {
			log.Fatalf("Failed to create alert file writer: %v", err)
		}
		logger.Infof("Alert output mode: file (%s)", out.File.Path)
		return w
	case "http":
		w, err := alerthttp.NewWriter(alerthttp.Config{
			URL:     out.HTTP.URL,
			Timeout: out.HTTP.Timeout,
			Headers: out.HTTP.Headers,
		})
		if err != nil {
			log.Fatalf("Failed to create alert HTTP writer: %v", err)
		}
		logger.Infof("Alert output mode: http (%s)", out.HTTP.URL)
		return w
	case "clickhouse":
		w, err := alertclickhouse.NewWriter(alertclickhouse.Config{
			URL:      out.ClickHouse.URL,
			Database: out.ClickHouse.Database,
			Table:    out.ClickHouse.Table,
			Username: out.ClickHouse.Username,
			Password: out.ClickHouse.Password,
			Timeout:  out.ClickHouse.Timeout,
			Headers:  out.ClickHouse.Headers,
		})
		if err != nil {
			log.Fatalf("Failed to create alert ClickHouse writer: %v", err)
		}
		logger.Infof("Alert output mode: clickhouse (%s/%s.%s)", out.ClickHouse.URL, out.ClickHouse.Database, out.ClickHouse.Table)
		return w
	case "postgres":
		w, err := alertpg.NewWriter(alertpg.Config{
			Host:     out.Postgres.Host,
			Port:     out.Postgres.Port,
			User:     out.Postgres.User,
			Password: out.Postgres.Password,
			Database: out.Postgres.Database,
			SSLMode:  out.Postgres.SSLMode,
			Table:    out.Postgres.Table,
		})
		if err != nil {
			log.Fatalf("Failed to create alert Postgres writer: %v", err)
		}
		logger.Infof("Alert output mode: postgres (%s:%d/%s)", out.Postgres.Host, out.Postgres.Port, out.Postgres.Database)
		return w
	default:
		log.Fatalf("Unknown alert output mode: %s", out.Mode)
		return nil
	}
}

func runPipeline() {
	cfg := loadConfig()
	logger.Infof("Sentinel starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Sentinel.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Sentinel.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Sentinel.Metrics.Listen, Handler: mux}
		go func() {
			logger.Infof("Metrics listening on %s%s", cfg.Sentinel.Metrics.Listen, cfg.Sentinel.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("Metrics server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create model store: %v", err)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		logger.Warnf("No model snapshot loaded, scoring disabled until one appears: %v", err)
	} else {
		logger.Infof("Model snapshot loaded: version=%s trained_at=%s", snap.Version, snap.TrainedAt.Format(time.RFC3339))
	}
	handle := modelstore.NewHandle(snap)

	// SIGHUP reloads the snapshot without restarting the pipeline.
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	go func() {
		for range hupCh {
			fresh, err := store.Load(ctx)
			if err != nil {
				logger.Errorf("Snapshot reload failed: %v", err)
				continue
			}
			handle.Swap(fresh)
			logger.Infof("Model snapshot reloaded: version=%s", fresh.Version)
		}
	}()

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
		log.Fatalf("Failed to create detection engine: %v", err)
	}

	consumer, err := inputredis.NewConsumer(inputredis.Config{
		Addr:         cfg.Sentinel.Input.Redis.Addr,
		Password:     cfg.Sentinel.Input.Redis.Password,
		DB:           cfg.Sentinel.Input.Redis.DB,
		Key:          cfg.Sentinel.Input.Redis.Key,
		BlockTimeout: cfg.Sentinel.Input.Redis.BlockTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create Redis consumer: %v", err)
	}

	writer := buildWriter(cfg)

	pipe := pipeline.New(consumer, eng, handle, writer, m, pipeline.Config{
		Workers:         cfg.Sentinel.Pipeline.Workers,
		BatchSize:       cfg.Sentinel.Pipeline.BatchSize,
		FlushInterval:   cfg.Sentinel.Pipeline.FlushInterval,
		Window:          cfg.Sentinel.Engine.Window,
		MaxWindowEvents: cfg.Sentinel.Pipeline.MaxWindowEvents,
		Cooldown:        cfg.Sentinel.Pipeline.Cooldown,
	})

	go func() {
		if err := pipe.Run(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Pipeline error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()
	time.Sleep(1 * time.Second)

	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}

	logger.Infof("Sentinel stopped")
}

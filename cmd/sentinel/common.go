package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"socsentinel/config"
	"socsentinel/internal/alerts"
	"socsentinel/internal/logger"
	"socsentinel/internal/modelstore"
	"socsentinel/internal/reputation"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg
		}
		log.Printf("Warning: config file not found at %s, trying default locations", configArg)
	}

	if _, err := os.Stat("sentinel.yml"); err == nil {
		return "sentinel.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), "sentinel.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "sentinel.yml"
}

// loadConfig loads, defaults and validates the config, then initializes
// logging. Any configuration error is fatal here.
func loadConfig() *config.Config {
	path := findConfigFile(configPath)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = &config.Config{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	l := cfg.Sentinel.Logging
	if err := logger.Init(logger.Config{
		Enabled: l.Enabled,
		Level:   l.Level,
		File:    l.File,
		Console: l.Console,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("Config loaded from: %s", path)
	return cfg
}

func thresholdsFromConfig(cfg *config.Config) alerts.Thresholds {
	t := cfg.Sentinel.Engine.Thresholds
	return alerts.Thresholds{
		Critical: t.Critical,
		High:     t.High,
		Medium:   t.Medium,
		Low:      t.Low,
	}
}

// buildStore constructs the configured snapshot store.
func buildStore(ctx context.Context, cfg *config.Config) (modelstore.Store, error) {
	ms := cfg.Sentinel.ModelStore
	switch ms.Mode {
	case "s3":
		return modelstore.NewS3Store(ctx, modelstore.S3Options{
			Bucket:  ms.S3.Bucket,
			Key:     ms.S3.Key,
			Region:  ms.S3.Region,
			Timeout: ms.S3.Timeout,
			Retries: ms.S3.Retries,
		})
	default:
		return modelstore.NewFileStore(ms.File.Path), nil
	}
}

// buildReputation constructs the reputation provider chain, or nil when
// lookups are disabled.
func buildReputation(cfg *config.Config) (reputation.Provider, func(), error) {
	r := cfg.Sentinel.Reputation
	if !r.Enabled {
		return nil, func() {}, nil
	}

	client, err := reputation.NewClient(reputation.ClientConfig{
		BaseURL: r.BaseURL,
		APIKey:  r.APIKey,
		Timeout: r.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	var provider reputation.Provider = client

	cleanup := func() {}
	if r.Cache.Enabled {
		cache, err := reputation.NewCache(reputation.CacheConfig{
			Addr:      r.Cache.Addr,
			Password:  r.Cache.Password,
			DB:        r.Cache.DB,
			KeyPrefix: r.Cache.KeyPrefix,
			TTL:       r.Cache.TTL,
		}, provider)
		if err != nil {
			return nil, nil, err
		}
		provider = cache
		cleanup = func() { cache.Close() }
	}
	return provider, cleanup, nil
}

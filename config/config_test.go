package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaultsFillsZeroValues(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	s := cfg.Sentinel
	if s.Input.Redis.Key != "soc_events" {
		t.Fatalf("unexpected default redis key: %s", s.Input.Redis.Key)
	}
	if s.Engine.Window != 15*time.Minute {
		t.Fatalf("unexpected default window: %v", s.Engine.Window)
	}
	if s.Engine.UnsupervisedWeight != 0.5 || s.Engine.SupervisedWeight != 0.5 {
		t.Fatalf("unexpected default weights: %v/%v", s.Engine.UnsupervisedWeight, s.Engine.SupervisedWeight)
	}
	th := s.Engine.Thresholds
	if th.Critical != 0.95 || th.High != 0.85 || th.Medium != 0.70 || th.Low != 0.50 {
		t.Fatalf("unexpected default thresholds: %+v", th)
	}
	if s.Output.Mode != "file" || s.ModelStore.Mode != "file" {
		t.Fatalf("unexpected default modes: output=%s store=%s", s.Output.Mode, s.ModelStore.Mode)
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsUnorderedThresholds(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Sentinel.Engine.Thresholds.Medium = 0.9 // above high

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unordered thresholds")
	}
}

func TestValidateRejectsEqualThresholds(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Sentinel.Engine.Thresholds.High = cfg.Sentinel.Engine.Thresholds.Critical

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for equal thresholds")
	}
}

func TestValidateRejectsNegativeWeights(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Sentinel.Engine.UnsupervisedWeight = -0.1

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative weight")
	}
}

func TestValidateRejectsUnknownOutputMode(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	cfg.Sentinel.Output.Mode = "kafka"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown output mode")
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	data := `
sentinel:
  engine:
    window: 30m
    thresholds:
      critical: 0.99
      high: 0.9
      medium: 0.8
      low: 0.6
  output:
    mode: http
    http:
      url: "http://localhost:8080/alerts"
`
	path := filepath.Join(t.TempDir(), "sentinel.yml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Sentinel.Engine.Window != 30*time.Minute {
		t.Fatalf("unexpected window: %v", cfg.Sentinel.Engine.Window)
	}
	if cfg.Sentinel.Engine.Thresholds.Critical != 0.99 {
		t.Fatalf("unexpected critical threshold: %v", cfg.Sentinel.Engine.Thresholds.Critical)
	}
	if cfg.Sentinel.Output.Mode != "http" || cfg.Sentinel.Output.HTTP.URL == "" {
		t.Fatalf("unexpected output config: %+v", cfg.Sentinel.Output)
	}
}

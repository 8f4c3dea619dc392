package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Sentinel SentinelConfig `yaml:"sentinel"`
}

// SentinelConfig is the project configuration.
type SentinelConfig struct {
	Input      InputConfig      `yaml:"input"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Engine     EngineConfig     `yaml:"engine"`
	ModelStore ModelStoreConfig `yaml:"model_store"`
	Reputation ReputationConfig `yaml:"reputation"`
	Output     OutputConfig     `yaml:"output"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// InputConfig controls the event source.
type InputConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig controls Redis list input.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// PipelineConfig controls streaming behavior.
type PipelineConfig struct {
	Workers         int           `yaml:"workers"`
	BatchSize       int           `yaml:"batch_size"`
	FlushInterval   time.Duration `yaml:"flush_interval"`
	MaxWindowEvents int           `yaml:"max_window_events"`
	Cooldown        time.Duration `yaml:"cooldown"`
}

// EngineConfig controls scoring and severity classification.
type EngineConfig struct {
	Window             time.Duration   `yaml:"window"`
	UnsupervisedWeight float64         `yaml:"unsupervised_weight"`
	SupervisedWeight   float64         `yaml:"supervised_weight"`
	Thresholds         ThresholdConfig `yaml:"thresholds"`
}

// ThresholdConfig holds the severity cut points. Comparisons are
// exclusive; scores at or below Low are suppressed.
type ThresholdConfig struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
}

// ModelStoreConfig controls where trained snapshots are loaded from.
type ModelStoreConfig struct {
	Mode string     `yaml:"mode"` // file|s3
	File FileConfig `yaml:"file"`
	S3   S3Config   `yaml:"s3"`
}

// S3Config controls the S3 snapshot backend.
type S3Config struct {
	Bucket  string        `yaml:"bucket"`
	Key     string        `yaml:"key"`
	Region  string        `yaml:"region"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// ReputationConfig controls the IP reputation collaborator.
type ReputationConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	Cache   CacheConfig   `yaml:"cache"`
}

// CacheConfig controls the Redis reputation cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// OutputConfig controls the alert sink.
type OutputConfig struct {
	Mode       string           `yaml:"mode"` // file|http|clickhouse|postgres
	File       FileConfig       `yaml:"file"`
	HTTP       HTTPConfig       `yaml:"http"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// FileConfig config for local JSONL output.
type FileConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig config for remote output.
type HTTPConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ClickHouseConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// PostgresConfig config for the Postgres alert sink.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Table    string `yaml:"table"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero values with operational defaults.
func (c *Config) ApplyDefaults() {
	s := &c.Sentinel

	if s.Input.Redis.Addr == "" {
		s.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if s.Input.Redis.Key == "" {
		s.Input.Redis.Key = "soc_events"
	}
	if s.Input.Redis.BlockTimeout == 0 {
		s.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if s.Pipeline.Workers <= 0 {
		s.Pipeline.Workers = 8
	}
	if s.Pipeline.BatchSize <= 0 {
		s.Pipeline.BatchSize = 100
	}
	if s.Pipeline.FlushInterval <= 0 {
		s.Pipeline.FlushInterval = 2 * time.Second
	}
	if s.Pipeline.MaxWindowEvents <= 0 {
		s.Pipeline.MaxWindowEvents = 500
	}
	if s.Pipeline.Cooldown <= 0 {
		s.Pipeline.Cooldown = 2 * time.Minute
	}

	if s.Engine.Window <= 0 {
		s.Engine.Window = 15 * time.Minute
	}
	if s.Engine.UnsupervisedWeight == 0 && s.Engine.SupervisedWeight == 0 {
		s.Engine.UnsupervisedWeight = 0.5
		s.Engine.SupervisedWeight = 0.5
	}
	t := &s.Engine.Thresholds
	if t.Critical == 0 && t.High == 0 && t.Medium == 0 && t.Low == 0 {
		t.Critical = 0.95
		t.High = 0.85
		t.Medium = 0.70
		t.Low = 0.50
	}

	if s.ModelStore.Mode == "" {
		s.ModelStore.Mode = "file"
	}
	if s.ModelStore.File.Path == "" {
		s.ModelStore.File.Path = "models/snapshot.json.gz"
	}
	if s.ModelStore.S3.Timeout <= 0 {
		s.ModelStore.S3.Timeout = 10 * time.Second
	}
	if s.ModelStore.S3.Retries <= 0 {
		s.ModelStore.S3.Retries = 3
	}

	if s.Reputation.Timeout <= 0 {
		s.Reputation.Timeout = 5 * time.Second
	}
	if s.Reputation.Cache.Addr == "" {
		s.Reputation.Cache.Addr = "127.0.0.1:6379"
	}
	if s.Reputation.Cache.KeyPrefix == "" {
		s.Reputation.Cache.KeyPrefix = "socsentinel:reputation"
	}
	if s.Reputation.Cache.TTL <= 0 {
		s.Reputation.Cache.TTL = time.Hour
	}

	if s.Output.Mode == "" {
		s.Output.Mode = "file"
	}
	if s.Output.File.Path == "" {
		s.Output.File.Path = "output/alerts.jsonl"
	}
	if s.Output.ClickHouse.Database == "" {
		s.Output.ClickHouse.Database = "socsentinel"
	}
	if s.Output.ClickHouse.Table == "" {
		s.Output.ClickHouse.Table = "alerts"
	}
	if s.Output.Postgres.Table == "" {
		s.Output.Postgres.Table = "alerts"
	}

	if s.Metrics.Listen == "" {
		s.Metrics.Listen = ":9209"
	}
	if s.Metrics.Path == "" {
		s.Metrics.Path = "/metrics"
	}

	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
}

// Validate rejects configurations that must fail at startup rather than
// at per-event time: unordered severity thresholds and unusable ensemble
// weights.
func (c *Config) Validate() error {
	s := &c.Sentinel

	t := s.Engine.Thresholds
	if !(t.Low < t.Medium && t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("severity thresholds must be strictly increasing low<medium<high<critical, got %.3f/%.3f/%.3f/%.3f",
			t.Low, t.Medium, t.High, t.Critical)
	}
	if t.Low <= 0 || t.Critical > 1 {
		return fmt.Errorf("severity thresholds must lie in (0,1], got low=%.3f critical=%.3f", t.Low, t.Critical)
	}

	if s.Engine.UnsupervisedWeight < 0 || s.Engine.SupervisedWeight < 0 {
		return fmt.Errorf("ensemble weights must be non-negative, got %.3f/%.3f",
			s.Engine.UnsupervisedWeight, s.Engine.SupervisedWeight)
	}
	if s.Engine.UnsupervisedWeight+s.Engine.SupervisedWeight <= 0 {
		return fmt.Errorf("ensemble weights must have a positive sum")
	}

	switch s.ModelStore.Mode {
	case "file", "s3":
	default:
		return fmt.Errorf("unknown model store mode: %s", s.ModelStore.Mode)
	}

	switch s.Output.Mode {
	case "file", "http", "clickhouse", "postgres":
	default:
		return fmt.Errorf("unknown output mode: %s", s.Output.Mode)
	}

	return nil
}

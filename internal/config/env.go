package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// PoolConfig sizes the render worker pool.
type PoolConfig struct {
	Size int // 0 means min(CPUs, 8)
}

// RenderConfig tunes thumbnail rendering.
type RenderConfig struct {
	ThumbnailWidth int
}

// SessionConfig controls document session lifecycle.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxUploadMB   int
}

// WorkerConfig defines dispatcher behavior and limits.
type WorkerConfig struct {
	Concurrency int
	JobTimeout  time.Duration
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
	RedisURL     string
	Stream       string
	Group        string
	PollInterval time.Duration
}

// ArtifactConfig controls where finished results are stored.
type ArtifactConfig struct {
	Dir      string
	S3Bucket string
	Password string // non-empty enables at-rest encryption for S3 artifacts
	SpoolDir string
}

// Config is the top-level configuration.
type Config struct {
	Logging   LoggingConfig
	Axiom     AxiomConfig
	Pool      PoolConfig
	Render    RenderConfig
	Session   SessionConfig
	Worker    WorkerConfig
	Queue     QueueConfig
	Artifacts ArtifactConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// A .env file in the working directory is honored when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfstudio.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfstudio",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Pool = PoolConfig{
		Size: parseInt(getEnv("RENDER_POOL_SIZE", "0"), 0),
	}

	cfg.Render = RenderConfig{
		ThumbnailWidth: parseInt(getEnv("THUMBNAIL_WIDTH", "160"), 160),
	}

	cfg.Session = SessionConfig{
		TTL:           parseDuration(getEnv("SESSION_TTL", "30m"), 30*time.Minute),
		SweepInterval: parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1m"), time.Minute),
		MaxUploadMB:   parseInt(getEnv("MAX_UPLOAD_MB", "100"), 100),
	}

	cfg.Worker = WorkerConfig{
		Concurrency: parseInt(getEnv("WORKER_CONCURRENCY", "2"), 2),
		JobTimeout:  parseDuration(getEnv("JOB_TIMEOUT", "5m"), 5*time.Minute),
	}

	cfg.Queue = QueueConfig{
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		Stream:       getEnv("QUEUE_STREAM", "jobs:pdf:ops"),
		Group:        getEnv("QUEUE_GROUP", "workers:ops"),
		PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
	}

	cfg.Artifacts = ArtifactConfig{
		Dir:      getEnv("RESULT_DIR", "uploads/results"),
		S3Bucket: getEnv("AWS_S3_BUCKET", ""),
		Password: getEnv("ARTIFACT_PASSWORD", ""),
		SpoolDir: getEnv("SPOOL_DIR", "uploads/spool"),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}

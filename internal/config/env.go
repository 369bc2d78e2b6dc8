package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// LimitsConfig bounds uploads and processing.
type LimitsConfig struct {
    MaxFileSizeMB    int
    SplitConcurrency int
    MaxConcurrentOps int
    RequestTimeout   time.Duration
}

// SessionConfig controls in-memory session lifetime.
type SessionConfig struct {
    TTL           time.Duration
    SweepInterval time.Duration
}

// StatusConfig selects the status backend. An empty RedisURL keeps status in memory.
type StatusConfig struct {
    RedisURL string
}

// StorageConfig configures result export to S3. Export is disabled without a bucket.
type StorageConfig struct {
    Bucket string
    Prefix string
}

// RenderConfig controls page thumbnails.
type RenderConfig struct {
    DPI     int
    Quality int
    Gray    bool
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
    Port            string
    ShutdownTimeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Limits  LimitsConfig
    Session SessionConfig
    Status  StatusConfig
    Storage StorageConfig
    Render  RenderConfig
    HTTP    HTTPConfig
}

// MaxFileSize returns the upload ceiling in bytes.
func (c Config) MaxFileSize() int64 { return int64(c.Limits.MaxFileSizeMB) << 20 }

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdfsplitter.log"),
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
        Dataset:       baseDataset + "_pdfsplitter",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Limits = LimitsConfig{
        MaxFileSizeMB:    parseInt(getEnv("MAX_FILE_SIZE_MB", "100"), 100),
        SplitConcurrency: parseInt(getEnv("SPLIT_CONCURRENCY", "1"), 1),
        MaxConcurrentOps: parseInt(getEnv("MAX_CONCURRENT_OPS", "2"), 2),
        RequestTimeout:   parseDuration(getEnv("REQUEST_TIMEOUT", "5m"), 5*time.Minute),
    }
    if cfg.Limits.MaxFileSizeMB <= 0 { cfg.Limits.MaxFileSizeMB = 100 }
    if cfg.Limits.SplitConcurrency <= 0 { cfg.Limits.SplitConcurrency = 1 }

    cfg.Session = SessionConfig{
        TTL:           parseDuration(getEnv("SESSION_TTL", "30m"), 30*time.Minute),
        SweepInterval: parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1m"), time.Minute),
    }

    cfg.Status = StatusConfig{RedisURL: getEnv("REDIS_URL", "")}

    cfg.Storage = StorageConfig{
        Bucket: getEnv("AWS_S3_BUCKET", ""),
        Prefix: getEnv("S3_PREFIX", "pdfsplitter"),
    }

    cfg.Render = RenderConfig{
        DPI:     parseInt(getEnv("THUMB_DPI", "48"), 48),
        Quality: parseInt(getEnv("THUMB_QUALITY", "70"), 70),
        Gray:    parseBool(getEnv("THUMB_GRAY", "false")),
    }

    cfg.HTTP = HTTPConfig{
        Port:            getEnv("PORT", "8080"),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
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
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}

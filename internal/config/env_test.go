package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
    for _, k := range []string{"MAX_FILE_SIZE_MB", "SPLIT_CONCURRENCY", "SESSION_TTL", "REDIS_URL", "AWS_S3_BUCKET", "THUMB_DPI", "PORT"} {
        t.Setenv(k, "")
    }
    cfg := FromEnv()
    assert.Equal(t, int64(100<<20), cfg.MaxFileSize())
    assert.Equal(t, 1, cfg.Limits.SplitConcurrency)
    assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
    assert.Empty(t, cfg.Status.RedisURL)
    assert.Empty(t, cfg.Storage.Bucket)
    assert.Equal(t, 48, cfg.Render.DPI)
    assert.Equal(t, "8080", cfg.HTTP.Port)
}

func TestFromEnvOverrides(t *testing.T) {
    t.Setenv("MAX_FILE_SIZE_MB", "5")
    t.Setenv("SPLIT_CONCURRENCY", "4")
    t.Setenv("SESSION_TTL", "90s")
    t.Setenv("AXIOM_DATASET", "prod")
    t.Setenv("THUMB_GRAY", "yes")
    cfg := FromEnv()
    assert.Equal(t, int64(5<<20), cfg.MaxFileSize())
    assert.Equal(t, 4, cfg.Limits.SplitConcurrency)
    assert.Equal(t, 90*time.Second, cfg.Session.TTL)
    assert.Equal(t, "prod_pdfsplitter", cfg.Axiom.Dataset)
    assert.True(t, cfg.Render.Gray)
}

func TestInvalidValuesFallBack(t *testing.T) {
    t.Setenv("MAX_FILE_SIZE_MB", "-3")
    t.Setenv("SPLIT_CONCURRENCY", "many")
    t.Setenv("SESSION_SWEEP_INTERVAL", "often")
    cfg := FromEnv()
    assert.Equal(t, 100, cfg.Limits.MaxFileSizeMB)
    assert.Equal(t, 1, cfg.Limits.SplitConcurrency)
    assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
}

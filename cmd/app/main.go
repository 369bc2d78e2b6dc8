package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    cfgpkg "github.com/local/pdfsplitter/internal/config"
    "github.com/local/pdfsplitter/internal/filetype"
    "github.com/local/pdfsplitter/internal/imagerender"
    "github.com/local/pdfsplitter/internal/limiter"
    logpkg "github.com/local/pdfsplitter/internal/logger"
    "github.com/local/pdfsplitter/internal/metrics"
    "github.com/local/pdfsplitter/internal/orchestrator"
    "github.com/local/pdfsplitter/internal/pdfops"
    "github.com/local/pdfsplitter/internal/session"
    "github.com/local/pdfsplitter/internal/statuscheck"
    "github.com/local/pdfsplitter/internal/storage"
    "github.com/local/pdfsplitter/internal/store"
)

func main() {
    _ = godotenv.Load(".env")
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
        Service: "pdfsplitter",
    })
    defer logpkg.Close()

    metrics.Init()

    // Status mirror: Redis when configured, memory otherwise
    var status store.StatusStore
    if cfg.Status.RedisURL != "" {
        rs, err := store.NewRedisStatus(cfg.Status.RedisURL, cfg.Session.TTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init redis status store")
        }
        status = rs
    } else {
        log.Info().Msg("REDIS_URL not set; keeping session status in memory")
        status = store.NewMemoryStatus()
    }
    defer status.Close()

    // Optional result export
    var exporter orchestrator.Exporter
    var exportPing statuscheck.Pinger
    if cfg.Storage.Bucket != "" {
        ex, err := storage.NewExporter(context.Background(), cfg.Storage.Bucket, cfg.Storage.Prefix)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init S3 exporter")
        }
        exporter, exportPing = ex, ex
    }

    limits := filetype.New(cfg.MaxFileSize())
    slots := limiter.New(cfg.Limits.MaxConcurrentOps)
    sessions := session.NewManager(session.Dependencies{
        Splitter:  pdfops.NewSplitter(cfg.Limits.SplitConcurrency),
        Merger:    pdfops.NewMerger(),
        Validator: limits,
        Status:    orchestrator.NewStatusAdapter(status),
        Gate:      slots,
    }, cfg.Session.TTL)
    sessions.Start(cfg.Session.SweepInterval)
    defer sessions.Stop()

    thumbColor := imagerender.ColorRGB
    if cfg.Render.Gray { thumbColor = imagerender.ColorGray }

    orch := orchestrator.New(orchestrator.Dependencies{
        Sessions:       sessions,
        Limits:         limits,
        Status:         status,
        Exporter:       exporter,
        Checker:        statuscheck.New(statuscheck.Options{Status: status, Export: exportPing, Slots: slots}),
        Thumbnails:     imagerender.Options{DPI: cfg.Render.DPI, Quality: cfg.Render.Quality, Color: thumbColor},
        RequestTimeout: cfg.Limits.RequestTimeout,
    })

    srv := &http.Server{Addr: ":"+cfg.HTTP.Port, Handler: orch.Handler(), ReadHeaderTimeout: 10 * time.Second}

    go func(){
        log.Info().Int64("max_file_size", limits.MaxSize()).Int("split_concurrency", cfg.Limits.SplitConcurrency).Msgf("HTTP server listening on :%s", cfg.HTTP.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}

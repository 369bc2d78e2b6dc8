package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    operations = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsplitter",
            Name:      "operations_total",
            Help:      "Total split, merge and archive operations by result",
        },
        []string{"op", "result"},
    )

    operationLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfsplitter",
            Name:      "operation_duration_seconds",
            Help:      "Duration of split, merge and archive operations",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"op"},
    )

    pagesTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsplitter",
            Name:      "pages_total",
            Help:      "Pages produced by split and merge",
        },
        []string{"op"},
    )

    uploadsRejected = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfsplitter",
            Name:      "uploads_rejected_total",
            Help:      "Uploads rejected before processing, by reason",
        },
        []string{"reason"},
    )

    outputBytes = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfsplitter",
            Name:      "output_bytes",
            Help:      "Size of produced archives and documents",
            Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 8),
        },
        []string{"kind"},
    )

    sessionsActive = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdfsplitter",
            Name:      "sessions_active",
            Help:      "Sessions currently held in memory",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(operations, operationLatency, pagesTotal, uploadsRejected, outputBytes, sessionsActive)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

// ObserveOperation records the outcome and latency of op.
func ObserveOperation(op string, err error, dur time.Duration) {
    result := "success"
    if err != nil { result = "failure" }
    operations.WithLabelValues(op, result).Inc()
    operationLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func AddPages(op string, n int)          { pagesTotal.WithLabelValues(op).Add(float64(n)) }
func IncRejected(reason string)          { uploadsRejected.WithLabelValues(reason).Inc() }
func ObserveOutput(kind string, size int) { outputBytes.WithLabelValues(kind).Observe(float64(size)) }
func SetSessions(n int)                  { sessionsActive.Set(float64(n)) }

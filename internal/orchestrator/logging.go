package orchestrator

import (
    "net/http"
    "time"

    "github.com/rs/zerolog/log"
)

type statusRecorder struct {
    http.ResponseWriter
    status int
    bytes  int
}

func (r *statusRecorder) WriteHeader(code int) { r.status = code; r.ResponseWriter.WriteHeader(code) }

func (r *statusRecorder) Write(p []byte) (int, error) {
    if r.status == 0 { r.status = http.StatusOK }
    n, err := r.ResponseWriter.Write(p)
    r.bytes += n
    return n, err
}

func withLogging(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        rec := &statusRecorder{ResponseWriter: w}
        next.ServeHTTP(rec, r)
        if r.URL.Path == "/health" || r.URL.Path == "/metrics" { return }
        log.Debug().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", rec.status).
            Int("bytes", rec.bytes).
            Dur("duration", time.Since(start)).
            Msg("http request")
    })
}

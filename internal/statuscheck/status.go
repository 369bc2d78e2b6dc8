package statuscheck

import (
    "context"
    _ "embed"
    "errors"
    "time"

    "github.com/local/pdfsplitter/internal/imagerender"
    "github.com/local/pdfsplitter/internal/pdfops"
)

// sample is a one-page document run through the PDF engine and renderer.
//go:embed sample.pdf
var sample []byte

// Pinger is anything that can report its reachability.
type Pinger interface {
    Ping(ctx context.Context) error
}

// SlotReporter exposes the occupancy of the processing limiter.
type SlotReporter interface {
    InFlight() int
    Waiting() int
    Cap() int
}

// Checker aggregates health checks for the status store, the export bucket
// and the local PDF toolchain.
type Checker struct {
    status Pinger
    export Pinger
    slots  SlotReporter
}

// Options configures the Checker. Nil pingers are reported as disabled.
type Options struct {
    Status Pinger
    Export Pinger
    Slots  SlotReporter
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Load is a snapshot of split and merge runs across all sessions.
type Load struct {
    InFlight int `json:"in_flight"`
    Waiting  int `json:"waiting"`
    Capacity int `json:"capacity"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
    StatusStore Status `json:"status_store"`
    S3          Status `json:"s3"`
    PDFEngine   Status `json:"pdf_engine"`
    Renderer    Status `json:"renderer"`
    Processing  *Load  `json:"processing,omitempty"`
}

// OK reports whether every required subsystem is usable. The export bucket is
// optional.
func (s Summary) OK() bool { return s.StatusStore.OK && s.PDFEngine.OK }

func New(opts Options) *Checker {
    return &Checker{status: opts.Status, export: opts.Export, slots: opts.Slots}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    s := Summary{
        StatusStore: ping(ctx, c.status, 2*time.Second, "Connected"),
        S3:          ping(ctx, c.export, 5*time.Second, "Connected"),
        PDFEngine:   c.checkPDFEngine(ctx),
        Renderer:    c.checkRenderer(),
    }
    if c.slots != nil {
        s.Processing = &Load{InFlight: c.slots.InFlight(), Waiting: c.slots.Waiting(), Capacity: c.slots.Cap()}
    }
    return s
}

func ping(ctx context.Context, p Pinger, timeout time.Duration, okMsg string) Status {
    if p == nil {
        return Status{OK: false, Message: "Not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()
    if err := p.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: okMsg}
}

func (c *Checker) checkPDFEngine(ctx context.Context) Status {
    pages, err := pdfops.NewSplitter(1).Split(ctx, sample)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    if len(pages) != 1 {
        return Status{OK: false, Message: "unexpected page count"}
    }
    return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkRenderer() Status {
    if _, err := imagerender.RenderThumbnail(sample, imagerender.Options{DPI: 12}); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}

package orchestrator

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "mime"
    "net/http"
    "strconv"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfsplitter/internal/filetype"
    "github.com/local/pdfsplitter/internal/imagerender"
    "github.com/local/pdfsplitter/internal/metrics"
    "github.com/local/pdfsplitter/internal/session"
    "github.com/local/pdfsplitter/internal/statuscheck"
    "github.com/local/pdfsplitter/internal/storage"
    "github.com/local/pdfsplitter/internal/store"
)

// SizeLimiter rejects uploads above the per-file ceiling.
type SizeLimiter interface {
    MaxSize() int64
    CheckSize(size int64) error
}

// Exporter uploads finished results to durable storage.
type Exporter interface {
    Export(ctx context.Context, sessionID, name, contentType string, data []byte, digest string) (*storage.Export, error)
}

type Dependencies struct {
    Sessions   *session.Manager
    Limits     SizeLimiter
    Status     store.StatusStore
    Exporter   Exporter
    Checker    *statuscheck.Checker
    Thumbnails imagerender.Options
    // MaxMergeFiles caps the files accepted in one merge upload request.
    MaxMergeFiles  int
    RequestTimeout time.Duration
}

type Orchestrator struct {
    deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
    if deps.MaxMergeFiles <= 0 { deps.MaxMergeFiles = 20 }
    return &Orchestrator{deps: deps}
}

// Handler returns the routes wrapped in request logging.
func (o *Orchestrator) Handler() http.Handler {
    mux := http.NewServeMux()
    o.RegisterRoutes(mux)
    return withLogging(mux)
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request){ w.WriteHeader(http.StatusOK); _,_ = w.Write([]byte("ok")) })
    mux.HandleFunc("GET /health/details", o.handleHealthDetails)
    mux.Handle("GET /metrics", metrics.Handler())

    mux.HandleFunc("POST /sessions", o.handleCreate)
    mux.HandleFunc("GET /sessions/{id}", o.handleView)
    mux.HandleFunc("DELETE /sessions/{id}", o.handleDelete)
    mux.HandleFunc("POST /sessions/{id}/split", o.handleSplit)
    mux.HandleFunc("POST /sessions/{id}/merge", o.handleMergeAdd)
    mux.HandleFunc("POST /sessions/{id}/merge/move", o.handleMergeMove)
    mux.HandleFunc("DELETE /sessions/{id}/merge/{index}", o.handleMergeRemove)
    mux.HandleFunc("POST /sessions/{id}/merge/start", o.handleMergeStart)
    mux.HandleFunc("POST /sessions/{id}/merge/cancel", o.handleMergeCancel)
    mux.HandleFunc("POST /sessions/{id}/reset", o.handleReset)
    mux.HandleFunc("GET /sessions/{id}/download", o.handleDownloadAll)
    mux.HandleFunc("GET /sessions/{id}/pages/{n}", o.handleDownloadPage)
    mux.HandleFunc("GET /sessions/{id}/pages/{n}/thumbnail", o.handleThumbnail)
    mux.HandleFunc("POST /sessions/{id}/download/selected", o.handleDownloadSelected)
    mux.HandleFunc("POST /sessions/{id}/export", o.handleExport)
}

func (o *Orchestrator) handleHealthDetails(w http.ResponseWriter, r *http.Request) {
    if o.deps.Checker == nil { writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}); return }
    sum := o.deps.Checker.Summary(r.Context())
    code := http.StatusOK
    if !sum.OK() { code = http.StatusServiceUnavailable }
    writeJSON(w, code, sum)
}

func (o *Orchestrator) handleCreate(w http.ResponseWriter, r *http.Request) {
    s := o.deps.Sessions.Create()
    writeJSON(w, http.StatusCreated, s.View())
}

// handleView serves the live session, or the mirrored status when the session
// lives in another process.
func (o *Orchestrator) handleView(w http.ResponseWriter, r *http.Request) {
    id := r.PathValue("id")
    s, err := o.deps.Sessions.Get(id)
    if err == nil { writeJSON(w, http.StatusOK, s.View()); return }
    if o.deps.Status != nil {
        if st, ok, serr := o.deps.Status.Get(r.Context(), id); serr == nil && ok {
            writeJSON(w, http.StatusOK, fromStatus(id, st)); return
        }
    }
    writeError(w, r, err)
}

func (o *Orchestrator) handleDelete(w http.ResponseWriter, r *http.Request) {
    if err := o.deps.Sessions.Delete(r.Context(), r.PathValue("id")); err != nil { writeError(w, r, err); return }
    w.WriteHeader(http.StatusNoContent)
}

func (o *Orchestrator) handleSplit(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    r.Body = http.MaxBytesReader(w, r.Body, o.deps.Limits.MaxSize()+(1<<20))
    ups, err := o.readUploads(r, "file", 1)
    if err != nil { writeError(w, r, err); return }

    ctx, cancel := o.opContext(r)
    defer cancel()
    if err := s.Split(ctx, ups[0]); err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

func (o *Orchestrator) handleMergeAdd(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    r.Body = http.MaxBytesReader(w, r.Body, int64(o.deps.MaxMergeFiles)*o.deps.Limits.MaxSize()+(1<<20))
    uploads, err := o.readUploads(r, "files", o.deps.MaxMergeFiles)
    if err != nil { writeError(w, r, err); return }
    if err := s.AddFiles(uploads); err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

// moveReq either moves from -> to, or steps index one place in direction.
type moveReq struct {
    From      *int   `json:"from"`
    To        *int   `json:"to"`
    Index     *int   `json:"index"`
    Direction string `json:"direction"`
}

func (o *Orchestrator) handleMergeMove(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    var req moveReq
    if err := decodeJSON(r, &req); err != nil { writeError(w, r, err); return }

    var err error
    switch {
    case req.From != nil && req.To != nil:
        err = s.Move(*req.From, *req.To)
    case req.Index != nil && req.Direction == "up":
        err = s.MoveUp(*req.Index)
    case req.Index != nil && req.Direction == "down":
        err = s.MoveDown(*req.Index)
    default:
        err = fmt.Errorf("%w: need from/to or index/direction", ErrBadRequest)
    }
    if err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

func (o *Orchestrator) handleMergeRemove(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    i, err := strconv.Atoi(r.PathValue("index"))
    if err != nil { writeError(w, r, fmt.Errorf("%w: index %q", ErrBadRequest, r.PathValue("index"))); return }
    if err := s.Remove(i); err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

type startReq struct {
    Name string `json:"name"`
}

func (o *Orchestrator) handleMergeStart(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    var req startReq
    if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
        writeError(w, r, fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err)); return
    }
    ctx, cancel := o.opContext(r)
    defer cancel()
    if err := s.StartMerge(ctx, req.Name); err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

func (o *Orchestrator) handleMergeCancel(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    if err := s.CancelMerge(); err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

func (o *Orchestrator) handleReset(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    if err := s.Reset(); err != nil { writeError(w, r, err); return }
    writeJSON(w, http.StatusOK, s.View())
}

func (o *Orchestrator) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    d, err := s.DownloadAll()
    if err != nil { writeError(w, r, err); return }
    writeDownload(w, r, d)
}

func (o *Orchestrator) handleDownloadPage(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    n, err := pageNumber(r)
    if err != nil { writeError(w, r, err); return }
    d, err := s.DownloadPage(n - 1)
    if err != nil { writeError(w, r, err); return }
    writeDownload(w, r, d)
}

func (o *Orchestrator) handleThumbnail(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    n, err := pageNumber(r)
    if err != nil { writeError(w, r, err); return }
    d, err := s.DownloadPage(n - 1)
    if err != nil { writeError(w, r, err); return }
    if match := r.Header.Get("If-None-Match"); match != "" && match == etag(d.Digest+"-thumb") {
        w.WriteHeader(http.StatusNotModified); return
    }
    thumb, err := imagerender.RenderThumbnail(d.Data, o.deps.Thumbnails)
    if err != nil { writeError(w, r, err); return }
    w.Header().Set("Content-Type", "image/jpeg")
    w.Header().Set("ETag", etag(d.Digest+"-thumb"))
    w.Header().Set("Cache-Control", "private, max-age=300")
    _, _ = w.Write(thumb.Data)
}

type selectedReq struct {
    Pages []int `json:"pages"`
}

func (o *Orchestrator) handleDownloadSelected(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    var req selectedReq
    if err := decodeJSON(r, &req); err != nil { writeError(w, r, err); return }
    indices := make([]int, len(req.Pages))
    for i, p := range req.Pages { indices[i] = p - 1 }
    d, err := s.DownloadSelected(indices)
    if err != nil { writeError(w, r, err); return }
    writeDownload(w, r, d)
}

func (o *Orchestrator) handleExport(w http.ResponseWriter, r *http.Request) {
    s, ok := o.session(w, r)
    if !ok { return }
    if o.deps.Exporter == nil { writeError(w, r, ErrExportDisabled); return }
    d, err := s.DownloadAll()
    if err != nil { writeError(w, r, err); return }
    out, err := o.deps.Exporter.Export(r.Context(), s.ID(), d.Name, d.ContentType, d.Data, d.Digest)
    if err != nil { writeError(w, r, err); return }
    log.Info().Str("session_id", s.ID()).Str("url", out.URL).Msg("result exported")
    writeJSON(w, http.StatusOK, out)
}

func (o *Orchestrator) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
    s, err := o.deps.Sessions.Get(r.PathValue("id"))
    if err != nil { writeError(w, r, err); return nil, false }
    return s, true
}

// readUploads streams the file parts named field straight into memory. A part
// is cut off one byte past the per-file ceiling, so nothing is spooled to disk
// and an oversized file is refused without reading it whole.
func (o *Orchestrator) readUploads(r *http.Request, field string, maxFiles int) ([]session.Upload, error) {
    mr, err := r.MultipartReader()
    if err != nil { return nil, formError(err) }
    limit := o.deps.Limits.MaxSize()

    var out []session.Upload
    for {
        p, err := mr.NextPart()
        if err == io.EOF { break }
        if err != nil { return nil, formError(err) }
        name := p.FileName()
        if p.FormName() != field || name == "" { p.Close(); continue }
        if len(out) == maxFiles {
            p.Close()
            return nil, fmt.Errorf("%w: at most %d files per request", ErrBadRequest, maxFiles)
        }
        data, err := io.ReadAll(io.LimitReader(p, limit+1))
        p.Close()
        if err != nil { return nil, formError(err) }
        if err := o.deps.Limits.CheckSize(int64(len(data))); err != nil {
            metrics.IncRejected("too_large")
            return nil, fmt.Errorf("%s: %w", name, err)
        }
        out = append(out, session.Upload{Name: name, Data: data})
    }
    if len(out) == 0 { return nil, session.ErrNoFiles }
    return out, nil
}

// opContext ignores client disconnects and applies the configured timeout.
func (o *Orchestrator) opContext(r *http.Request) (context.Context, context.CancelFunc) {
    ctx := context.WithoutCancel(r.Context())
    if o.deps.RequestTimeout > 0 { return context.WithTimeout(ctx, o.deps.RequestTimeout) }
    return context.WithCancel(ctx)
}

func pageNumber(r *http.Request) (int, error) {
    n, err := strconv.Atoi(r.PathValue("n"))
    if err != nil { return 0, fmt.Errorf("%w: page %q", ErrBadRequest, r.PathValue("n")) }
    return n, nil
}

func formError(err error) error {
    var tooBig *http.MaxBytesError
    if errors.As(err, &tooBig) {
        metrics.IncRejected("too_large")
        return fmt.Errorf("%w: request body exceeds %d bytes", filetype.ErrFileTooLarge, tooBig.Limit)
    }
    return fmt.Errorf("%w: invalid multipart form: %v", ErrBadRequest, err)
}

func decodeJSON(r *http.Request, v any) error {
    defer r.Body.Close()
    dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
    if err := dec.Decode(v); err != nil { return fmt.Errorf("%w: invalid json: %v", ErrBadRequest, err) }
    return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
    code, kind := classify(err)
    ev := log.Warn()
    if code >= 500 { ev = log.Error() }
    ev.Err(err).Str("path", r.URL.Path).Str("kind", kind).Int("status", code).Msg("request failed")
    writeJSON(w, code, errorBody{Error: kind, Message: userMessage(kind, err)})
}

func writeDownload(w http.ResponseWriter, r *http.Request, d *session.Download) {
    tag := etag(d.Digest)
    if match := r.Header.Get("If-None-Match"); match != "" && match == tag {
        w.WriteHeader(http.StatusNotModified); return
    }
    w.Header().Set("Content-Type", d.ContentType)
    w.Header().Set("Content-Disposition", contentDisposition(d.Name))
    w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
    w.Header().Set("ETag", tag)
    _, _ = w.Write(d.Data)
}

func etag(digest string) string { return `"` + digest + `"` }

// contentDisposition encodes non-ASCII names as RFC 2231 filename*.
func contentDisposition(name string) string {
    if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" { return v }
    return "attachment"
}

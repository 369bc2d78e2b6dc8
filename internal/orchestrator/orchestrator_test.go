package orchestrator

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "mime"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/klauspost/compress/zip"
    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/pdfsplitter/internal/filetype"
    "github.com/local/pdfsplitter/internal/pdfops"
    "github.com/local/pdfsplitter/internal/pdftest"
    "github.com/local/pdfsplitter/internal/session"
    "github.com/local/pdfsplitter/internal/storage"
    "github.com/local/pdfsplitter/internal/store"
)

type fakeExporter struct{ name string }

func (f *fakeExporter) Export(_ context.Context, id, name, _ string, data []byte, _ string) (*storage.Export, error) {
    f.name = name
    return &storage.Export{Bucket: "b", Key: id + "/" + name, URL: "s3://b/" + id + "/" + name, Size: len(data)}, nil
}

type fixture struct {
    srv      *httptest.Server
    status   *store.MemoryStatus
    sessions *session.Manager
}

func newFixture(t *testing.T, maxSize int64, exp Exporter) *fixture {
    t.Helper()
    status := store.NewMemoryStatus()
    limits := filetype.New(maxSize)
    mgr := session.NewManager(session.Dependencies{
        Splitter:  pdfops.NewSplitter(2),
        Merger:    pdfops.NewMerger(),
        Validator: limits,
        Status:    NewStatusAdapter(status),
    }, time.Hour)
    o := New(Dependencies{Sessions: mgr, Limits: limits, Status: status, Exporter: exp, RequestTimeout: time.Minute})
    srv := httptest.NewServer(o.Handler())
    t.Cleanup(srv.Close)
    return &fixture{srv: srv, status: status, sessions: mgr}
}

func (f *fixture) create(t *testing.T) string {
    t.Helper()
    resp, err := http.Post(f.srv.URL+"/sessions", "application/json", nil)
    require.NoError(t, err)
    defer resp.Body.Close()
    require.Equal(t, http.StatusCreated, resp.StatusCode)
    var v session.View
    require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
    assert.Equal(t, session.KindIdle, v.State)
    return v.ID
}

type part struct {
    name string
    data []byte
}

func (f *fixture) upload(t *testing.T, path, field string, parts ...part) *http.Response {
    t.Helper()
    var body bytes.Buffer
    mw := multipart.NewWriter(&body)
    for _, p := range parts {
        fw, err := mw.CreateFormFile(field, p.name)
        require.NoError(t, err)
        _, err = fw.Write(p.data)
        require.NoError(t, err)
    }
    require.NoError(t, mw.Close())
    resp, err := http.Post(f.srv.URL+path, mw.FormDataContentType(), &body)
    require.NoError(t, err)
    return resp
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
    t.Helper()
    var r io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        require.NoError(t, err)
        r = bytes.NewReader(b)
    }
    req, err := http.NewRequest(method, f.srv.URL+path, r)
    require.NoError(t, err)
    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
    t.Helper()
    defer resp.Body.Close()
    var v T
    require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
    return v
}

func readAll(t *testing.T, resp *http.Response) []byte {
    t.Helper()
    defer resp.Body.Close()
    b, err := io.ReadAll(resp.Body)
    require.NoError(t, err)
    return b
}

func zipEntries(t *testing.T, data []byte) []string {
    t.Helper()
    zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
    require.NoError(t, err)
    var out []string
    for _, f := range zr.File {
        out = append(out, f.Name)
    }
    return out
}

func TestSplitAndDownload(t *testing.T) {
    f := newFixture(t, 0, nil)
    id := f.create(t)
    base := "/sessions/" + id

    resp := f.upload(t, base+"/split", "file", part{"report.pdf", pdftest.Doc(3, 300)})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    v := decode[session.View](t, resp)
    assert.Equal(t, session.KindCompleted, v.State)
    require.Len(t, v.Pages, 3)

    resp = f.do(t, http.MethodGet, base+"/download", nil)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
    assert.Equal(t, "attachment; filename=report.zip", resp.Header.Get("Content-Disposition"))
    tag := resp.Header.Get("ETag")
    assert.Equal(t, []string{"report_page_01.pdf", "report_page_02.pdf", "report_page_03.pdf"}, zipEntries(t, readAll(t, resp)))

    req, _ := http.NewRequest(http.MethodGet, f.srv.URL+base+"/download", nil)
    req.Header.Set("If-None-Match", tag)
    resp, err := http.DefaultClient.Do(req)
    require.NoError(t, err)
    resp.Body.Close()
    assert.Equal(t, http.StatusNotModified, resp.StatusCode)

    resp = f.do(t, http.MethodGet, base+"/pages/2", nil)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Contains(t, resp.Header.Get("Content-Disposition"), "report_p02.pdf")
    dims, err := api.PageDims(bytes.NewReader(readAll(t, resp)), nil)
    require.NoError(t, err)
    require.Len(t, dims, 1)
    assert.Equal(t, 310.0, dims[0].Width)

    resp = f.do(t, http.MethodPost, base+"/download/selected", map[string]any{"pages": []int{3, 1}})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Contains(t, resp.Header.Get("Content-Disposition"), "report_selected(2).zip")
    assert.Equal(t, []string{"report_page_01.pdf", "report_page_03.pdf"}, zipEntries(t, readAll(t, resp)))

    resp = f.do(t, http.MethodPost, base+"/download/selected", map[string]any{"pages": []int{}})
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    assert.Equal(t, "empty_selection", decode[errorBody](t, resp).Error)

    resp = f.do(t, http.MethodGet, base+"/pages/9", nil)
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    resp.Body.Close()

    st, ok, err := f.status.Get(context.Background(), id)
    require.NoError(t, err)
    require.True(t, ok)
    assert.Equal(t, "COMPLETED", st.State)
    assert.Equal(t, 3, st.PageCount)

    resp = f.do(t, http.MethodPost, base+"/reset", nil)
    assert.Equal(t, session.KindIdle, decode[session.View](t, resp).State)
}

func TestUploadRejections(t *testing.T) {
    f := newFixture(t, 512, nil)
    id := f.create(t)

    resp := f.upload(t, "/sessions/"+id+"/split", "file", part{"notes.pdf", []byte("just some text")})
    assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
    body := decode[errorBody](t, resp)
    assert.Equal(t, "invalid_file_type", body.Error)
    assert.NotEmpty(t, body.Message)

    resp = f.upload(t, "/sessions/"+id+"/split", "file", part{"big.pdf", pdftest.Doc(30, 300)})
    assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
    assert.Equal(t, "file_too_large", decode[errorBody](t, resp).Error)

    resp = f.do(t, http.MethodGet, "/sessions/"+id, nil)
    assert.Equal(t, session.KindIdle, decode[session.View](t, resp).State)

    resp = f.upload(t, "/sessions/"+id+"/split", "file", part{"broken.pdf", []byte("%PDF-1.4\ngarbage")})
    assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
    assert.Equal(t, "unreadable_document", decode[errorBody](t, resp).Error)
}

func TestMergeFlow(t *testing.T) {
    exp := &fakeExporter{}
    f := newFixture(t, 0, exp)
    id := f.create(t)
    base := "/sessions/" + id

    resp := f.upload(t, base+"/merge", "files", part{"b.pdf", pdftest.Doc(3, 500)})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Equal(t, session.KindMergePrep, decode[session.View](t, resp).State)

    resp = f.do(t, http.MethodPost, base+"/merge/start", nil)
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    assert.Equal(t, "insufficient_merge_inputs", decode[errorBody](t, resp).Error)

    resp = f.upload(t, base+"/merge", "files", part{"a.pdf", pdftest.Doc(2, 300)}, part{"junk.pdf", pdftest.Doc(1, 900)})
    v := decode[session.View](t, resp)
    require.Len(t, v.Queue, 3)

    resp = f.do(t, http.MethodDelete, base+"/merge/2", nil)
    require.Len(t, decode[session.View](t, resp).Queue, 2)

    resp = f.do(t, http.MethodPost, base+"/merge/move", map[string]any{"index": 1, "direction": "up"})
    v = decode[session.View](t, resp)
    assert.Equal(t, "a.pdf", v.Queue[0].Name)

    resp = f.do(t, http.MethodPost, base+"/merge/move", map[string]any{"from": 0, "to": 7})
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    resp.Body.Close()

    resp = f.do(t, http.MethodPost, base+"/merge/start", map[string]string{"name": "combined"})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    v = decode[session.View](t, resp)
    assert.Equal(t, session.KindCompleted, v.State)
    require.NotNil(t, v.Merged)
    assert.Equal(t, 5, v.Merged.PageCount)

    resp = f.do(t, http.MethodGet, base+"/download", nil)
    assert.Contains(t, resp.Header.Get("Content-Disposition"), "combined.pdf")
    dims, err := api.PageDims(bytes.NewReader(readAll(t, resp)), nil)
    require.NoError(t, err)
    var widths []float64
    for _, d := range dims {
        widths = append(widths, d.Width)
    }
    assert.Equal(t, []float64{300, 310, 500, 510, 520}, widths)

    resp = f.do(t, http.MethodGet, base+"/pages/1", nil)
    assert.Equal(t, http.StatusConflict, resp.StatusCode)
    assert.Equal(t, "invalid_state", decode[errorBody](t, resp).Error)

    resp = f.do(t, http.MethodPost, base+"/export", nil)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    out := decode[storage.Export](t, resp)
    assert.Equal(t, "combined.pdf", exp.name)
    assert.True(t, strings.HasSuffix(out.URL, "/combined.pdf"))
}

func TestMergeCancel(t *testing.T) {
    f := newFixture(t, 0, nil)
    id := f.create(t)
    resp := f.upload(t, "/sessions/"+id+"/merge", "files", part{"a.pdf", pdftest.Doc(1, 300)})
    resp.Body.Close()

    resp = f.do(t, http.MethodPost, "/sessions/"+id+"/merge/cancel", nil)
    assert.Equal(t, session.KindIdle, decode[session.View](t, resp).State)

    resp = f.do(t, http.MethodPost, "/sessions/"+id+"/merge/cancel", nil)
    assert.Equal(t, http.StatusConflict, resp.StatusCode)
    resp.Body.Close()
}

func TestUnknownSessionAndMirror(t *testing.T) {
    f := newFixture(t, 0, nil)

    resp := f.do(t, http.MethodGet, "/sessions/nope", nil)
    assert.Equal(t, http.StatusNotFound, resp.StatusCode)
    assert.Equal(t, "not_found", decode[errorBody](t, resp).Error)

    require.NoError(t, f.status.Set(context.Background(), "elsewhere", store.Status{State: "PROCESSING", Mode: "split"}))
    resp = f.do(t, http.MethodGet, "/sessions/elsewhere", nil)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    v := decode[session.View](t, resp)
    assert.Equal(t, session.KindProcessing, v.State)

    id := f.create(t)
    resp = f.do(t, http.MethodDelete, "/sessions/"+id, nil)
    resp.Body.Close()
    assert.Equal(t, http.StatusNoContent, resp.StatusCode)
    _, ok, _ := f.status.Get(context.Background(), id)
    assert.False(t, ok)
}

func TestExportDisabled(t *testing.T) {
    f := newFixture(t, 0, nil)
    id := f.create(t)
    resp := f.do(t, http.MethodPost, "/sessions/"+id+"/export", nil)
    assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
    resp.Body.Close()
}

func TestHealth(t *testing.T) {
    f := newFixture(t, 0, nil)
    resp := f.do(t, http.MethodGet, "/health", nil)
    assert.Equal(t, "ok", string(readAll(t, resp)))
}

func TestClassify(t *testing.T) {
    cases := []struct {
        err  error
        code int
        kind string
    }{
        {filetype.ErrInvalidFileType, http.StatusUnsupportedMediaType, "invalid_file_type"},
        {fmt.Errorf("a.pdf: %w", filetype.ErrFileTooLarge), http.StatusRequestEntityTooLarge, "file_too_large"},
        {session.ErrEmptySelection, http.StatusBadRequest, "empty_selection"},
        {session.ErrInsufficientMergeInputs, http.StatusBadRequest, "insufficient_merge_inputs"},
        {session.ErrBusy, http.StatusConflict, "busy"},
        {fmt.Errorf("%w: IDLE", session.ErrInvalidState), http.StatusConflict, "invalid_state"},
        {pdfops.ErrEmptyDocument, http.StatusUnprocessableEntity, "empty_document"},
        {pdfops.ErrPageCountMismatch, http.StatusInternalServerError, "page_count_mismatch"},
        {pdfops.ErrArchiveGeneration, http.StatusInternalServerError, "archive_generation"},
        {errors.New("boom"), http.StatusInternalServerError, "internal"},
    }
    for _, c := range cases {
        code, kind := classify(c.err)
        assert.Equal(t, c.code, code, c.err.Error())
        assert.Equal(t, c.kind, kind, c.err.Error())
    }
}

func TestDownloadKeepsNonASCIIName(t *testing.T) {
    rec := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodGet, "/sessions/x/download", nil)
    writeDownload(rec, req, &session.Download{Name: "보고서_page_01.pdf", ContentType: "application/pdf", Data: []byte("%PDF"), Digest: "d"})

    header := rec.Header().Get("Content-Disposition")
    for _, c := range header {
        require.Less(t, c, rune(0x80), "header must stay ASCII: %s", header)
    }
    disp, params, err := mime.ParseMediaType(header)
    require.NoError(t, err)
    assert.Equal(t, "attachment", disp)
    assert.Equal(t, "보고서_page_01.pdf", params["filename"])
}

func TestReadUploadsStaysInMemory(t *testing.T) {
    o := New(Dependencies{Limits: filetype.New(4096)})
    build := func(parts ...part) *http.Request {
        var body bytes.Buffer
        mw := multipart.NewWriter(&body)
        require.NoError(t, mw.WriteField("note", "ignored"))
        for _, p := range parts {
            fw, err := mw.CreateFormFile("files", p.name)
            require.NoError(t, err)
            _, err = fw.Write(p.data)
            require.NoError(t, err)
        }
        require.NoError(t, mw.Close())
        req := httptest.NewRequest(http.MethodPost, "/sessions/x/merge", &body)
        req.Header.Set("Content-Type", mw.FormDataContentType())
        return req
    }

    req := build(part{"a.pdf", []byte("one")}, part{"b.pdf", []byte("two")})
    ups, err := o.readUploads(req, "files", 5)
    require.NoError(t, err)
    require.Len(t, ups, 2)
    assert.Equal(t, session.Upload{Name: "b.pdf", Data: []byte("two")}, ups[1])
    assert.Nil(t, req.MultipartForm, "parts must not go through ParseMultipartForm")

    _, err = o.readUploads(build(part{"a.pdf", nil}, part{"b.pdf", nil}), "files", 1)
    assert.ErrorIs(t, err, ErrBadRequest)

    _, err = o.readUploads(build(part{"big.pdf", bytes.Repeat([]byte("x"), 5000)}), "files", 5)
    assert.ErrorIs(t, err, filetype.ErrFileTooLarge)

    _, err = o.readUploads(build(), "files", 5)
    assert.ErrorIs(t, err, session.ErrNoFiles)
}

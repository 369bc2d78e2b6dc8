package orchestrator

import (
    "context"
    "errors"
    "net/http"

    "github.com/local/pdfsplitter/internal/filetype"
    "github.com/local/pdfsplitter/internal/pdfops"
    "github.com/local/pdfsplitter/internal/session"
)

var (
    // ErrBadRequest wraps malformed request bodies and parameters.
    ErrBadRequest = errors.New("bad request")
    // ErrExportDisabled is returned when no export bucket is configured.
    ErrExportDisabled = errors.New("export not configured")
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
    Error   string `json:"error"`
    Message string `json:"message"`
}

// classify maps an operation error to an HTTP status and a stable kind.
func classify(err error) (int, string) {
    switch {
    case errors.Is(err, filetype.ErrInvalidFileType):
        return http.StatusUnsupportedMediaType, "invalid_file_type"
    case errors.Is(err, filetype.ErrFileTooLarge):
        return http.StatusRequestEntityTooLarge, "file_too_large"
    case errors.Is(err, session.ErrEmptySelection):
        return http.StatusBadRequest, "empty_selection"
    case errors.Is(err, session.ErrInvalidSelection):
        return http.StatusBadRequest, "invalid_selection"
    case errors.Is(err, pdfops.ErrInsufficientMergeInputs):
        return http.StatusBadRequest, "insufficient_merge_inputs"
    case errors.Is(err, session.ErrNoFiles):
        return http.StatusBadRequest, "no_files"
    case errors.Is(err, ErrBadRequest):
        return http.StatusBadRequest, "bad_request"
    case errors.Is(err, session.ErrBusy):
        return http.StatusConflict, "busy"
    case errors.Is(err, session.ErrInvalidState):
        return http.StatusConflict, "invalid_state"
    case errors.Is(err, session.ErrNotFound):
        return http.StatusNotFound, "not_found"
    case errors.Is(err, pdfops.ErrUnreadableDocument):
        return http.StatusUnprocessableEntity, "unreadable_document"
    case errors.Is(err, pdfops.ErrEmptyDocument):
        return http.StatusUnprocessableEntity, "empty_document"
    case errors.Is(err, pdfops.ErrPageCountMismatch):
        return http.StatusInternalServerError, "page_count_mismatch"
    case errors.Is(err, pdfops.ErrArchiveGeneration):
        return http.StatusInternalServerError, "archive_generation"
    case errors.Is(err, ErrExportDisabled):
        return http.StatusServiceUnavailable, "export_disabled"
    case errors.Is(err, context.DeadlineExceeded):
        return http.StatusGatewayTimeout, "timeout"
    }
    return http.StatusInternalServerError, "internal"
}

// userMessage is the text shown to the user for each kind.
func userMessage(kind string, err error) string {
    switch kind {
    case "invalid_file_type":
        return "Only PDF files are supported."
    case "file_too_large":
        return "File exceeds the upload size limit."
    case "empty_selection":
        return "Select at least one page to download."
    case "insufficient_merge_inputs":
        return "Add at least two PDF files to merge."
    case "busy":
        return "Another operation is still running. Please wait."
    case "unreadable_document":
        return "The PDF could not be read. It may be damaged or encrypted."
    case "empty_document":
        return "The PDF has no pages."
    case "page_count_mismatch", "archive_generation", "internal":
        return "Processing failed. Please try again."
    }
    return err.Error()
}

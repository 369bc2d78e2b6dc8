package session

import (
	"errors"

	"github.com/local/pdfsplitter/internal/pdfops"
)

var (
	// ErrBusy is returned for any request while an operation is running.
	ErrBusy = errors.New("an operation is already running")
	// ErrInvalidState is returned for a transition the current state does not allow.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrEmptySelection is returned when a selective download names no pages.
	ErrEmptySelection = errors.New("no pages selected")
	// ErrInvalidSelection is returned for page or queue positions out of range.
	ErrInvalidSelection = errors.New("selection out of range")
	// ErrInsufficientMergeInputs is returned when starting a merge with fewer than two files.
	ErrInsufficientMergeInputs = pdfops.ErrInsufficientMergeInputs
	// ErrNoFiles is returned when an upload carries no files.
	ErrNoFiles = errors.New("no files provided")
	// ErrNotFound is returned by the Manager for unknown session ids.
	ErrNotFound = errors.New("session not found")

	errRecentlyUsed = errors.New("session used recently")
)

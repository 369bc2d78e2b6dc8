package pdfops

import "errors"

var (
	// ErrUnreadableDocument is returned when a PDF cannot be loaded: malformed,
	// corrupt, or encrypted with an unsupported scheme.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrEmptyDocument is returned for a source document without pages.
	ErrEmptyDocument = errors.New("document has no pages")
	// ErrPageCountMismatch means a split or merge produced a different number of
	// pages than its inputs declared.
	ErrPageCountMismatch = errors.New("page count mismatch")
	// ErrArchiveGeneration wraps any failure while building a ZIP archive.
	ErrArchiveGeneration = errors.New("archive generation failed")
	// ErrInsufficientMergeInputs is returned when merge is called without input.
	ErrInsufficientMergeInputs = errors.New("insufficient merge inputs")
)

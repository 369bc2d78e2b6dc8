package filetype

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// DefaultMaxSize is the per-file upload ceiling, 100 MiB.
const DefaultMaxSize int64 = 100 << 20

var (
	// ErrInvalidFileType is returned for anything that is not a PDF.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrFileTooLarge is returned for files above the size ceiling.
	ErrFileTooLarge = errors.New("file too large")
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	Name      string
	MIMEType  string
	Extension string
	Size      int64
}

// Detector validates uploads using magic bytes, not the filename.
type Detector struct {
	maxSize int64
}

// New creates a detector rejecting files larger than maxSize bytes.
// A non-positive maxSize selects DefaultMaxSize.
func New(maxSize int64) *Detector {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Detector{maxSize: maxSize}
}

// MaxSize returns the configured ceiling in bytes.
func (d *Detector) MaxSize() int64 { return d.maxSize }

// CheckSize rejects a declared size above the ceiling. It lets callers refuse
// a file before reading it.
func (d *Detector) CheckSize(size int64) error {
	if size > d.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds %d MB", ErrFileTooLarge, size, d.maxSize>>20)
	}
	return nil
}

// Validate checks size and content type of an uploaded file.
func (d *Detector) Validate(name string, data []byte) (*FileTypeInfo, error) {
	if err := d.CheckSize(int64(len(data))); err != nil {
		log.Warn().Str("file", name).Int("size", len(data)).Msg("upload rejected: too large")
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFileType)
	}

	mtype := mimetype.Detect(data)
	log.Debug().Str("mime", mtype.String()).Str("ext", mtype.Extension()).Str("file", name).Msg("detected file type")
	if !mtype.Is("application/pdf") {
		log.Warn().Str("file", name).Str("mime", mtype.String()).Msg("upload rejected: not a pdf")
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, mtype.String())
	}

	return &FileTypeInfo{
		Name:      name,
		MIMEType:  "application/pdf",
		Extension: mtype.Extension(),
		Size:      int64(len(data)),
	}, nil
}

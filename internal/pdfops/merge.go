package pdfops

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// Merger concatenates PDFs.
type Merger struct{}

// NewMerger returns a Merger.
func NewMerger() *Merger { return &Merger{} }

// Merge appends every page of every input, in input order, to one new
// document. An unreadable input aborts the merge with no output.
func (m *Merger) Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, ErrInsufficientMergeInputs
	}

	expected := 0
	seed := ""
	readers := make([]io.ReadSeeker, 0, len(docs))
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := api.PageCount(bytes.NewReader(d), newConfig())
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %v", ErrUnreadableDocument, i+1, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: input %d", ErrEmptyDocument, i+1)
		}
		expected += n
		seed += Digest(d)
		readers = append(readers, bytes.NewReader(d))
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfig()); err != nil {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), err)
	}
	merged := stabilize(buf.Bytes(), seed)

	got, err := api.PageCount(bytes.NewReader(merged), newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: merged output: %v", ErrUnreadableDocument, err)
	}
	if got != expected {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrPageCountMismatch, expected, got)
	}
	log.Debug().Int("inputs", len(docs)).Int("pages", got).Int("bytes", len(merged)).Msg("documents merged")
	return merged, nil
}

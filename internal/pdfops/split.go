package pdfops

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Splitter turns one PDF into one single-page PDF per source page.
type Splitter struct {
	concurrency int
}

// NewSplitter returns a Splitter extracting pages on up to concurrency workers.
// Values below 1 mean sequential extraction.
func NewSplitter(concurrency int) *Splitter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Splitter{concurrency: concurrency}
}

// Split returns one buffer per source page, in source order. Any failure
// aborts the whole run; partial results are never returned.
func (s *Splitter) Split(ctx context.Context, data []byte) ([][]byte, error) {
	src, err := load(data)
	if err != nil {
		return nil, err
	}
	total := src.PageCount
	if total == 0 {
		return nil, ErrEmptyDocument
	}
	log.Debug().Int("pages", total).Int("workers", s.workers(total)).Msg("splitting document")

	seed := Digest(data)
	out := make([][]byte, total)
	if s.workers(total) == 1 {
		err = extractRange(ctx, src, seed, out, 0, 1)
	} else {
		err = s.splitParallel(ctx, src, data, seed, out)
	}
	if err != nil {
		return nil, err
	}

	produced := 0
	for _, b := range out {
		if len(b) > 0 {
			produced++
		}
	}
	if produced != total {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrPageCountMismatch, total, produced)
	}
	return out, nil
}

func (s *Splitter) workers(total int) int {
	if s.concurrency > total {
		return total
	}
	return s.concurrency
}

// splitParallel strides pages over workers. pdfcpu contexts are not safe for
// concurrent use, so every worker but the first parses its own copy.
func (s *Splitter) splitParallel(ctx context.Context, first *model.Context, data []byte, seed string, out [][]byte) error {
	n := s.workers(len(out))
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < n; w++ {
		g.Go(func() error {
			src := first
			if w > 0 {
				var err error
				if src, err = load(data); err != nil {
					return err
				}
			}
			return extractRange(gctx, src, seed, out, w, n)
		})
	}
	return g.Wait()
}

// extractRange fills out[start], out[start+step], ... from src. Page i is
// stamped from seed and i, so the same source always yields the same bytes.
func extractRange(ctx context.Context, src *model.Context, seed string, out [][]byte, start, step int) error {
	for i := start; i < len(out); i += step {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := api.ExtractPage(src, i+1)
		if err != nil {
			return fmt.Errorf("extract page %d: %w", i+1, err)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read page %d: %w", i+1, err)
		}
		out[i] = stabilize(b, fmt.Sprintf("%s:%d", seed, i))
	}
	return nil
}

func load(data []byte) (*model.Context, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return ctx, nil
}

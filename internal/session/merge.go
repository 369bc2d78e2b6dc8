package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/pdfops"
)

// AddFiles validates uploads and appends them to the merge queue. From Idle it
// enters MergePrep. One invalid file rejects the whole call and leaves the
// queue untouched.
func (s *Session) AddFiles(uploads []Upload) error {
	if len(uploads) == 0 {
		return ErrNoFiles
	}
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrNotFound
	}

	var queue MergeQueue
	switch st := s.state.(type) {
	case Idle:
	case MergePrep:
		queue = st.Queue.clone()
	case Processing:
		return ErrBusy
	default:
		return fmt.Errorf("%w: %s", ErrInvalidState, st.Kind())
	}

	for _, up := range uploads {
		info, err := s.validate(up)
		if err != nil {
			return fmt.Errorf("%s: %w", up.Name, err)
		}
		queue = append(queue, QueuedFile{ID: uuid.NewString(), Name: up.Name, Size: info.Size, Data: up.Data})
	}
	log.Info().Str("session_id", s.id).Int("added", len(uploads)).Int("queued", len(queue)).Msg("merge queue updated")
	s.setLocked(MergePrep{Queue: queue}, "")
	return nil
}

// Move relocates the queued file at from to position to.
func (s *Session) Move(from, to int) error {
	return s.mutateQueue(func(q MergeQueue) (MergeQueue, error) {
		if from < 0 || from >= len(q) || to < 0 || to >= len(q) {
			return nil, fmt.Errorf("%w: move %d -> %d of %d", ErrInvalidSelection, from, to, len(q))
		}
		f := q[from]
		q = append(q[:from], q[from+1:]...)
		q = append(q[:to], append(MergeQueue{f}, q[to:]...)...)
		return q, nil
	})
}

// MoveUp swaps the file at i with its predecessor; the first file stays put.
func (s *Session) MoveUp(i int) error {
	if i == 0 {
		return s.mutateQueue(func(q MergeQueue) (MergeQueue, error) { return q, nil })
	}
	return s.Move(i, i-1)
}

// MoveDown swaps the file at i with its successor; the last file stays put.
func (s *Session) MoveDown(i int) error {
	return s.mutateQueue(func(q MergeQueue) (MergeQueue, error) {
		if i < 0 || i >= len(q) {
			return nil, fmt.Errorf("%w: %d of %d", ErrInvalidSelection, i, len(q))
		}
		if i == len(q)-1 {
			return q, nil
		}
		q[i], q[i+1] = q[i+1], q[i]
		return q, nil
	})
}

// Remove drops the queued file at i. The session stays in MergePrep even when
// the queue empties.
func (s *Session) Remove(i int) error {
	return s.mutateQueue(func(q MergeQueue) (MergeQueue, error) {
		if i < 0 || i >= len(q) {
			return nil, fmt.Errorf("%w: %d of %d", ErrInvalidSelection, i, len(q))
		}
		return append(q[:i], q[i+1:]...), nil
	})
}

// CancelMerge abandons the queue and returns to Idle.
func (s *Session) CancelMerge() error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.expectLocked(KindMergePrep); err != nil {
		return err
	}
	s.setLocked(Idle{}, "")
	return nil
}

func (s *Session) mutateQueue(fn func(MergeQueue) (MergeQueue, error)) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.expectLocked(KindMergePrep); err != nil {
		return err
	}
	q, err := fn(s.state.(MergePrep).Queue.clone())
	if err != nil {
		return err
	}
	s.setLocked(MergePrep{Queue: q}, "")
	return nil
}

// StartMerge merges the queue in order into one document called name.
// MergePrep -> Processing -> Completed; a failure returns to MergePrep with
// the queue intact so the user can fix it and retry.
func (s *Session) StartMerge(ctx context.Context, name string) error {
	s.mu.Lock()
	if err := s.expectLocked(KindMergePrep); err != nil {
		s.unlock()
		return err
	}
	queue := s.state.(MergePrep).Queue
	if len(queue) < 2 {
		s.unlock()
		return fmt.Errorf("%w: have %d", ErrInsufficientMergeInputs, len(queue))
	}
	s.setLocked(Processing{Mode: ModeMerge, queue: queue}, "")
	s.unlock()

	log.Info().Str("session_id", s.id).Int("inputs", len(queue)).Msg("merge started")
	res, err := s.runMerge(ctx, queue, name)

	s.mu.Lock()
	defer s.unlock()
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("merge failed")
		s.setLocked(MergePrep{Queue: queue}, err.Error())
		return err
	}
	log.Info().Str("session_id", s.id).Int("pages", res.Document.PageCount).Int("bytes", len(res.Document.Data)).Msg("merge completed")
	s.setLocked(Completed{Result: res}, fmt.Sprintf("merged %d files", len(queue)))
	return nil
}

func (s *Session) runMerge(ctx context.Context, queue MergeQueue, name string) (*MergeResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	docs := make([][]byte, len(queue))
	inputs := make([]string, len(queue))
	for i, f := range queue {
		docs[i] = f.Data
		inputs[i] = f.Name
	}

	start := time.Now()
	data, err := s.deps.Merger.Merge(ctx, docs)
	metrics.ObserveOperation("merge", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	info, err := pdfops.Inspect(data)
	if err != nil {
		return nil, err
	}
	metrics.AddPages("merge", info.PageCount)
	metrics.ObserveOutput("merged", len(data))

	return &MergeResult{
		Document: pdfops.MergedDocument{
			Name:      pdfops.MergedName(name),
			Data:      data,
			PageCount: info.PageCount,
			Digest:    pdfops.Digest(data),
		},
		Inputs: inputs,
	}, nil
}

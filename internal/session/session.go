package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/filetype"
	"github.com/local/pdfsplitter/internal/metrics"
	"github.com/local/pdfsplitter/internal/pdfops"
)

// Splitter splits one PDF into single-page PDFs.
type Splitter interface {
	Split(ctx context.Context, data []byte) ([][]byte, error)
}

// Merger concatenates PDFs.
type Merger interface {
	Merge(ctx context.Context, docs [][]byte) ([]byte, error)
}

// Validator rejects uploads that are not PDFs or are too large.
type Validator interface {
	Validate(name string, data []byte) (*filetype.FileTypeInfo, error)
}

// StatusSink receives a snapshot after every state change.
type StatusSink interface {
	Publish(ctx context.Context, v View) error
	Remove(ctx context.Context, id string) error
}

// Gate bounds how many runs execute at once across sessions.
type Gate interface {
	Acquire(ctx context.Context) (func(), error)
}

type Dependencies struct {
	Splitter  Splitter
	Merger    Merger
	Validator Validator
	Status    StatusSink
	// Gate is optional.
	Gate Gate
}

// Upload is a file handed in by the user.
type Upload struct {
	Name string
	Data []byte
}

// Session is one user's workspace. Only one operation runs at a time: entering
// Processing is exclusive and every other request fails with ErrBusy until
// the run ends. The lock is not held while an operation runs or while status
// is published.
type Session struct {
	id   string
	deps Dependencies

	mu       sync.Mutex
	state    State
	message  string
	lastSeen time.Time
	closed   bool
	seq      uint64
	pending  *View

	// pubMu orders status writes; published is the seq of the last one.
	pubMu     sync.Mutex
	published uint64
	retired   bool
}

// New returns an idle session.
func New(id string, deps Dependencies) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{id: id, deps: deps, state: Idle{}, lastSeen: time.Now()}
}

func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Split validates upload and runs split then archive on it.
// Idle -> Processing -> Completed, or back to Idle on failure.
func (s *Session) Split(ctx context.Context, up Upload) error {
	s.mu.Lock()
	if err := s.expectLocked(KindIdle); err != nil {
		s.unlock()
		return err
	}
	info, err := s.validate(up)
	if err != nil {
		s.setLocked(Idle{}, err.Error())
		s.unlock()
		return err
	}
	s.setLocked(Processing{Mode: ModeSplit}, "")
	s.unlock()

	log.Info().Str("session_id", s.id).Str("file", up.Name).Int64("size", info.Size).Msg("split started")
	res, err := s.runSplit(ctx, up, info)

	s.mu.Lock()
	defer s.unlock()
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id).Str("file", up.Name).Msg("split failed")
		s.setLocked(Idle{}, err.Error())
		return err
	}
	log.Info().Str("session_id", s.id).Int("pages", len(res.Pages)).Int("archive_bytes", len(res.Archive.Data)).Msg("split completed")
	s.setLocked(Completed{Result: res}, fmt.Sprintf("split into %d pages", len(res.Pages)))
	return nil
}

func (s *Session) runSplit(ctx context.Context, up Upload, ft *filetype.FileTypeInfo) (*SplitResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	buffers, err := s.deps.Splitter.Split(ctx, up.Data)
	metrics.ObserveOperation("split", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	info, err := pdfops.Inspect(up.Data)
	if err != nil {
		return nil, err
	}
	if len(buffers) != info.PageCount {
		return nil, fmt.Errorf("%w: expected %d, got %d", pdfops.ErrPageCountMismatch, info.PageCount, len(buffers))
	}
	metrics.AddPages("split", len(buffers))

	src := pdfops.SourceDocument{
		Name:      up.Name,
		Data:      up.Data,
		PageCount: info.PageCount,
		MediaType: ft.MIMEType,
		Size:      ft.Size,
	}
	pages := pdfops.NewPageDocuments(up.Name, buffers, info)

	start = time.Now()
	archive, err := pdfops.ArchivePages(up.Name, pdfops.ArchiveName(up.Name), pages)
	metrics.ObserveOperation("archive", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.ObserveOutput("archive", len(archive.Data))
	return &SplitResult{Source: src, Pages: pages, Archive: archive}, nil
}

// Reset discards every held buffer and returns to Idle.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.unlock()
	if s.closed {
		return ErrNotFound
	}
	if _, busy := s.state.(Processing); busy {
		return ErrBusy
	}
	s.setLocked(Idle{}, "")
	return nil
}

func (s *Session) acquire(ctx context.Context) (func(), error) {
	if s.deps.Gate == nil {
		return func() {}, nil
	}
	release, err := s.deps.Gate.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for a processing slot: %w", err)
	}
	return release, nil
}

func (s *Session) validate(up Upload) (*filetype.FileTypeInfo, error) {
	info, err := s.deps.Validator.Validate(up.Name, up.Data)
	if err != nil {
		metrics.IncRejected(rejectReason(err))
		return nil, err
	}
	return info, nil
}

// expectLocked fails unless the session is open and in kind.
func (s *Session) expectLocked(kind Kind) error {
	if s.closed {
		return ErrNotFound
	}
	s.lastSeen = time.Now()
	cur := s.state.Kind()
	if cur == kind {
		return nil
	}
	if cur == KindProcessing {
		return ErrBusy
	}
	return fmt.Errorf("%w: %s", ErrInvalidState, cur)
}

// setLocked moves to st and queues a snapshot for unlock to publish.
func (s *Session) setLocked(st State, msg string) {
	s.state = st
	s.message = msg
	s.lastSeen = time.Now()
	s.seq++
	v := s.viewLocked()
	s.pending = &v
}

// unlock releases mu, then publishes the snapshot left by setLocked, if any.
func (s *Session) unlock() {
	v, seq := s.pending, s.seq
	s.pending = nil
	s.mu.Unlock()
	if v != nil {
		s.publish(*v, seq)
	}
}

// publish writes v unless a newer snapshot already went out or the session
// was retired.
func (s *Session) publish(v View, seq uint64) {
	if s.deps.Status == nil {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.retired || seq <= s.published {
		return
	}
	s.published = seq
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.deps.Status.Publish(ctx, v); err != nil {
		log.Warn().Err(err).Str("session_id", s.id).Msg("status publish failed")
	}
}

// tryClose closes the session so that every later mutation fails with
// ErrNotFound. A processing session is never closed. With a non-zero
// idleBefore, a session used after that instant is left open too.
func (s *Session) tryClose(idleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotFound
	}
	if _, busy := s.state.(Processing); busy {
		return ErrBusy
	}
	if !idleBefore.IsZero() && s.lastSeen.After(idleBefore) {
		return errRecentlyUsed
	}
	s.closed = true
	return nil
}

// retire stops status publication and drops the published record.
func (s *Session) retire(ctx context.Context) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.retired = true
	if s.deps.Status == nil {
		return
	}
	if err := s.deps.Status.Remove(ctx, s.id); err != nil {
		log.Warn().Err(err).Str("session_id", s.id).Msg("status remove failed")
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, filetype.ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, filetype.ErrInvalidFileType):
		return "invalid_type"
	default:
		return "other"
	}
}

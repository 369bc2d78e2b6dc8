package store

import (
    "context"
    "sync"
    "time"
)

// Status is the published snapshot of one session, readable by other
// replicas and by health tooling.
type Status struct {
    State     string    `json:"state"`
    Mode      string    `json:"mode,omitempty"`
    Message   string    `json:"message,omitempty"`
    PageCount int       `json:"page_count"`
    QueueLen  int       `json:"queue_len"`
    Updated   time.Time `json:"updated_at"`
}

// StatusStore persists session status records.
type StatusStore interface {
    Set(ctx context.Context, sessionID string, st Status) error
    Get(ctx context.Context, sessionID string) (Status, bool, error)
    Delete(ctx context.Context, sessionID string) error
    Ping(ctx context.Context) error
    Close() error
}

// MemoryStatus keeps status records in process. Used when no Redis URL is set.
type MemoryStatus struct {
    mu sync.RWMutex
    m  map[string]Status
}

func NewMemoryStatus() *MemoryStatus { return &MemoryStatus{m: map[string]Status{}} }

func (s *MemoryStatus) Set(_ context.Context, sessionID string, st Status) error {
    s.mu.Lock(); defer s.mu.Unlock()
    s.m[sessionID] = st
    return nil
}

func (s *MemoryStatus) Get(_ context.Context, sessionID string) (Status, bool, error) {
    s.mu.RLock(); defer s.mu.RUnlock()
    st, ok := s.m[sessionID]
    return st, ok, nil
}

func (s *MemoryStatus) Delete(_ context.Context, sessionID string) error {
    s.mu.Lock(); defer s.mu.Unlock()
    delete(s.m, sessionID)
    return nil
}

func (s *MemoryStatus) Ping(context.Context) error { return nil }
func (s *MemoryStatus) Close() error               { return nil }

package limiter

import (
    "context"
    "sync/atomic"
)

// Slots caps how many split or merge runs execute at once across all
// sessions. Each run holds whole documents in memory.
type Slots struct {
    sem      chan struct{}
    inflight atomic.Int64
    waiting  atomic.Int64
}

// New returns a limiter allowing n concurrent runs; n <= 0 means 2.
func New(n int) *Slots {
    if n <= 0 { n = 2 }
    return &Slots{sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx ends. The returned release must
// be called exactly once.
func (s *Slots) Acquire(ctx context.Context) (func(), error) {
    s.waiting.Add(1)
    defer s.waiting.Add(-1)
    select {
    case s.sem <- struct{}{}:
    case <-ctx.Done():
        return nil, ctx.Err()
    }
    s.inflight.Add(1)
    var once atomic.Bool
    return func() {
        if once.CompareAndSwap(false, true) {
            s.inflight.Add(-1)
            <-s.sem
        }
    }, nil
}

// InFlight, Waiting and Cap feed the health summary.
func (s *Slots) InFlight() int { return int(s.inflight.Load()) }
func (s *Slots) Waiting() int  { return int(s.waiting.Load()) }
func (s *Slots) Cap() int      { return cap(s.sem) }

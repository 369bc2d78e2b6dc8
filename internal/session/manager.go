package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/metrics"
)

// Manager keeps sessions in memory and expires the ones left idle.
type Manager struct {
	deps Dependencies
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager returns a Manager expiring sessions unused for ttl. A
// non-positive ttl disables expiry.
func NewManager(deps Dependencies, ttl time.Duration) *Manager {
	return &Manager{deps: deps, ttl: ttl, sessions: map[string]*Session{}, stop: make(chan struct{})}
}

// Create registers a new idle session.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.deps)
	m.mu.Lock()
	m.sessions[s.id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetSessions(n)
	s.mu.Lock()
	s.setLocked(Idle{}, "")
	s.unlock()
	log.Info().Str("session_id", s.id).Msg("session created")
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete drops a session and its buffers. A busy session cannot be deleted;
// once deleted, calls on a retained *Session fail with ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.tryClose(time.Time{}); err != nil {
		return err
	}
	m.remove(ctx, s)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle since before now-ttl and returns how many went.
// Busy sessions are never removed.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	cutoff := now.Add(-m.ttl)
	expired := 0
	for _, s := range all {
		if s.tryClose(cutoff) != nil {
			continue
		}
		m.remove(ctx, s)
		expired++
	}
	if expired > 0 {
		log.Info().Int("expired", expired).Int("remaining", m.Len()).Msg("sessions swept")
	}
	return expired
}

// Start runs Sweep every interval until Stop.
func (m *Manager) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case now := <-ticker.C:
				m.Sweep(context.Background(), now)
			}
		}
	}()
}

func (m *Manager) Stop() {
	close(m.stop)
	m.wg.Wait()
}

// remove forgets a closed session and drops its status record.
func (m *Manager) remove(ctx context.Context, s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.id)
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetSessions(n)
	s.retire(ctx)
}

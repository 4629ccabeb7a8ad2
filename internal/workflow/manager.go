package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// ErrSessionNotFound is returned for unknown or foreign session IDs. A
// session owned by someone else is indistinguishable from one that never
// existed.
var ErrSessionNotFound = errors.New("workflow session not found")

const (
	// DefaultSessionTTL evicts sessions idle this long.
	DefaultSessionTTL = 30 * time.Minute
	// janitorInterval is how often expired sessions are swept.
	janitorInterval = time.Minute
)

// Manager is the in-memory registry of live editing sessions.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	ttl         time.Duration
	quietWindow time.Duration
	fee         int
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// NewManager creates a session registry.
func NewManager(ttl, quietWindow time.Duration, fee int, logger *slog.Logger, recorder metrics.Recorder) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		quietWindow: quietWindow,
		fee:         fee,
		logger:      logger,
		metrics:     recorder,
	}
}

// Create opens a new session for the owner over the given source asset.
func (m *Manager) Create(ownerID string, typ transform.Type, source Source) (*Session, error) {
	session, err := newSession(ulid.Make().String(), ownerID, typ, source, m.quietWindow, m.fee)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(int64(count))
	return session, nil
}

// Get returns the owner's session by ID.
func (m *Manager) Get(id, ownerID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || session.OwnerID != ownerID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Discard drops the owner's session. Credits already charged for applied
// batches are not returned; the ledger keeps their record.
func (m *Manager) Discard(id, ownerID string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if !ok || session.OwnerID != ownerID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(int64(count))
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run sweeps expired sessions until the context is canceled. Start it as a
// goroutine alongside the server.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	m.logger.Info("workflow session janitor started", "ttl", m.ttl.String())

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("workflow session janitor stopped")
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep evicts every expired session.
func (m *Manager) sweep() {
	now := time.Now()

	m.mu.Lock()
	var evicted []string
	for id, session := range m.sessions {
		if session.expired(m.ttl, now) {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(int64(count))
	if len(evicted) > 0 {
		m.logger.Info("evicted expired workflow sessions", "count", len(evicted))
	}
}

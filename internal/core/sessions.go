package core

import (
	"context"
	"sync"

	"attendance.service/internal/ports"
)

// SessionManager hands out one live dashboard session per organization,
// creating them lazily on first use and tearing them all down on shutdown.
type SessionManager struct {
	// ctx is the application lifetime, not a request context: session
	// auto-refresh loops and live subscriptions must outlive the request
	// that first created them.
	ctx     context.Context
	queries *QueryController
	stats   *StatsEngine
	live    ports.LiveEventSource
	roster  ports.RosterLookup
	base    SessionConfig

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewSessionManager creates the manager. base supplies the refresh and
// notice cadence for every session; the organization ID is filled per call.
func NewSessionManager(ctx context.Context, queries *QueryController, stats *StatsEngine, live ports.LiveEventSource, roster ports.RosterLookup, base SessionConfig) *SessionManager {
	return &SessionManager{
		ctx:      ctx,
		queries:  queries,
		stats:    stats,
		live:     live,
		roster:   roster,
		base:     base,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for the organization, starting one if needed.
func (m *SessionManager) Get(orgID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrSessionClosed
	}
	if s, ok := m.sessions[orgID]; ok {
		return s, nil
	}

	cfg := m.base
	cfg.OrganizationID = orgID
	s := NewSession(cfg, m.queries, m.stats, m.live, m.roster)
	if err := s.Start(m.ctx); err != nil {
		s.Close()
		return nil, err
	}
	m.sessions[orgID] = s
	return s, nil
}

// Close tears down every session. Idempotent.
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.closed = true
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

package server

import (
	"sync"
	"time"
)

// Manager tracks live sessions by ID and closes the ones nobody is
// connected to.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	now      func() time.Time
}

type managedSession struct {
	session  *Session
	conns    int
	lastSeen time.Time
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*managedSession),
		now:      time.Now,
	}
}

// Add registers s.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &managedSession{session: s, lastSeen: m.now()}
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok || ms.session.IsClosed() {
		return nil, ErrSessionNotFound
	}
	return ms.session, nil
}

// Attach records a connection to the session. The returned function
// detaches it.
func (m *Manager) Attach(id string) (detach func()) {
	m.mu.Lock()
	if ms, ok := m.sessions[id]; ok {
		ms.conns++
		ms.lastSeen = m.now()
	}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if ms, ok := m.sessions[id]; ok {
				ms.conns--
				ms.lastSeen = m.now()
			}
		})
	}
}

// Remove closes and forgets the session with the given ID.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		ms.session.Close()
	}
}

// Sweep closes sessions that have had no connection for longer than idle
// and returns how many it closed.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var expired []*Session
	for id, ms := range m.sessions {
		if ms.session.IsClosed() || (ms.conns == 0 && ms.lastSeen.Before(cutoff)) {
			expired = append(expired, ms.session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*managedSession)
	m.mu.Unlock()

	for _, ms := range all {
		ms.session.Close()
	}
}

package web

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/qubitlab/densecode"
	"github.com/qubitlab/densecode/bitstring"
)

// ErrSessionNotFound reports a session ID with no live session.
var ErrSessionNotFound = errors.New("session not found")

// A managedSession pairs a session with its own lock. Sessions are
// single-threaded; the manager serializes each one independently so
// slow operations on one session do not block the others.
type managedSession struct {
	mu      sync.Mutex
	session *densecode.Session
}

// A Manager owns the live sessions, keyed by UUID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession
	opts     densecode.SessionOpts
}

// NewManager returns a Manager that creates sessions from base,
// overriding only the message per request. A nil base Rand leaves the
// library default in place.
func NewManager(base densecode.SessionOpts) *Manager {
	return &Manager{
		sessions: make(map[string]*managedSession),
		opts:     base,
	}
}

// Create builds a new session and returns its ID.
func (m *Manager) Create(msg string) (string, error) {
	opts := m.opts
	if msg != "" {
		opts.Message = bitstring.Message(msg)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	s, err := densecode.NewSession(opts)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &managedSession{session: s}
	m.mu.Unlock()
	return id, nil
}

// With runs fn against the identified session while holding its lock.
func (m *Manager) With(id string, fn func(*densecode.Session) error) error {
	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return fn(ms.session)
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

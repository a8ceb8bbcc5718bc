// Package sessionmanager issues and tracks login sessions keyed by a
// 128-hex-character CSPRNG id.
package sessionmanager

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/omnifs/omnifs/pkg/usermanager"
)

// Session is the server-side authentication state for one logged-in user.
type Session struct {
	ID              string
	User            usermanager.User // snapshot copy at login time
	LoginTime       uint64
	LastActivity    uint64
	OperationsCount uint64
}

// Manager holds active sessions, keyed by session id.
type Manager struct {
	sessions map[string]*Session
}

// New returns an empty session manager.
func New() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// generateSessionID returns a 128-hex-character id from a CSPRNG (64 random
// bytes, hex-encoded). Tests must only assert length and uniqueness, never
// a specific value.
func generateSessionID() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CreateSession issues a new session for user, or "" if user is nil or
// inactive.
func (m *Manager) CreateSession(user *usermanager.User, now uint64) (string, error) {
	if user == nil || !user.IsActive {
		return "", nil
	}
	id, err := generateSessionID()
	if err != nil {
		return "", err
	}
	m.sessions[id] = &Session{
		ID:           id,
		User:         *user.Clone(),
		LoginTime:    now,
		LastActivity: now,
	}
	return id, nil
}

// Validate reports whether id names a live session for a still-active user.
func (m *Manager) Validate(id string) bool {
	sess, ok := m.sessions[id]
	if !ok {
		return false
	}
	return sess.User.IsActive
}

// Destroy removes a session.
func (m *Manager) Destroy(id string) {
	delete(m.sessions, id)
}

// Get returns the session's mutable handle, or nil.
func (m *Manager) Get(id string) *Session {
	return m.sessions[id]
}

// UpdateActivity touches last_activity and increments operations_count.
func (m *Manager) UpdateActivity(id string, now uint64) {
	if sess, ok := m.sessions[id]; ok {
		sess.LastActivity = now
		sess.OperationsCount++
	}
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	return len(m.sessions)
}

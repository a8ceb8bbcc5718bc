// Package usermanager keeps the username-keyed user table and resolves
// credentials. Password verification is upgraded from the reference's
// plaintext comparison to bcrypt (see design notes on password handling),
// with transparent migration of any legacy plaintext hash encountered on a
// successful login.
package usermanager

import (
	"github.com/omnifs/omnifs/internal/omnierr"
	"golang.org/x/crypto/bcrypt"
)

// Role is a user's privilege level.
type Role uint32

const (
	RoleNormal Role = 0
	RoleAdmin  Role = 1
)

const (
	MaxUsernameLength = 31
	BcryptCost        = bcrypt.DefaultCost
)

// User is the in-memory user record. PasswordHash is a bcrypt hash in
// normal operation.
type User struct {
	Username     string
	PasswordHash string
	Role         Role
	CreatedTime  uint64
	LastLogin    uint64
	IsActive     bool
}

// Clone returns a copy safe to hand to callers (e.g. session snapshots)
// without aliasing the manager's stored record.
func (u *User) Clone() *User {
	clone := *u
	return &clone
}

// Manager is the username-keyed user table.
type Manager struct {
	users map[string]*User
}

// New returns an empty user manager.
func New() *Manager {
	return &Manager{users: make(map[string]*User)}
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CreateUser rejects duplicate usernames, matching the reference's
// create_user behavior. secret is hashed with bcrypt before storage.
func (m *Manager) CreateUser(username, secret string, role Role, now uint64) (*User, *omnierr.Error) {
	if _, exists := m.users[username]; exists {
		return nil, omnierr.New(omnierr.InvalidOperation, "username already exists")
	}
	hash, err := HashPassword(secret)
	if err != nil {
		return nil, omnierr.NewIOError("failed to hash password: " + err.Error())
	}
	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedTime:  now,
		LastLogin:    0,
		IsActive:     true,
	}
	m.users[username] = user
	return user, nil
}

// DeleteUser removes username, or returns NOT_FOUND.
func (m *Manager) DeleteUser(username string) *omnierr.Error {
	if _, exists := m.users[username]; !exists {
		return omnierr.NewNotFound("no such user", username)
	}
	delete(m.users, username)
	return nil
}

// Get returns the user keyed by username.
func (m *Manager) Get(username string) (*User, bool) {
	u, ok := m.users[username]
	return u, ok
}

// VerifyPassword checks password against the stored hash. If the stored
// value isn't a valid bcrypt hash (a legacy plaintext record), it falls
// back to an equality comparison and, on success, transparently rehashes
// and stores the bcrypt form.
func (m *Manager) VerifyPassword(username, password string) bool {
	user, ok := m.users[username]
	if !ok {
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err == nil {
		return true
	}
	if user.PasswordHash == password {
		if hash, err := HashPassword(password); err == nil {
			user.PasswordHash = hash
		}
		return true
	}
	return false
}

// TouchLogin records a successful login time.
func (m *Manager) TouchLogin(username string, now uint64) {
	if user, ok := m.users[username]; ok {
		user.LastLogin = now
	}
}

// List returns all users in map iteration order (unspecified, matches the
// reference's lack of ordering guarantee).
func (m *Manager) List() []*User {
	users := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users
}

// Count returns the number of users currently loaded.
func (m *Manager) Count() int {
	return len(m.users)
}

// LoadUsers rebuilds the map from a slice of users, skipping any record
// whose username is empty (the zeroed slots of a fixed-size on-disk table).
func (m *Manager) LoadUsers(users []*User) {
	m.users = make(map[string]*User, len(users))
	for _, u := range users {
		if u.Username == "" {
			continue
		}
		m.users[u.Username] = u
	}
}

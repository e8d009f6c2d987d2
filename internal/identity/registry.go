// Package identity keeps the set of registered users and checks their
// credentials. Users live in memory only and are never removed.
package identity

import (
	"strings"
	"sync"

	"github.com/R3E-Network/book_catalog/internal/errors"
)

const (
	msgMissingFields = "Username and password are required."
	msgDuplicateUser = "Username already exists."
)

// Registry is a concurrency-safe in-memory user registry.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]string
	hasher PasswordHasher
}

// Option configures a Registry.
type Option func(*Registry)

// WithHasher selects how passwords are stored. The default is PlainText.
func WithHasher(h PasswordHasher) Option {
	return func(r *Registry) {
		if h != nil {
			r.hasher = h
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{users: make(map[string]string), hasher: PlainText{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsAvailable reports whether username could be registered: it is not blank
// and nobody holds it yet.
func (r *Registry) IsAvailable(username string) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, taken := r.users[username]
	return !taken
}

// Register adds a user. An empty username or password is InvalidInput; a
// username that is not available (taken or whitespace-only) is DuplicateUser.
// Usernames are stored as given.
func (r *Registry) Register(username, password string) error {
	if username == "" || password == "" {
		return errors.InvalidInput(msgMissingFields)
	}
	if strings.TrimSpace(username) == "" {
		return errors.DuplicateUser(msgDuplicateUser)
	}

	stored, err := r.hasher.Hash(password)
	if err != nil {
		return errors.Internal("hash password", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.users[username]; taken {
		return errors.DuplicateUser(msgDuplicateUser)
	}
	r.users[username] = stored
	return nil
}

// Verify reports whether the pair matches a registered user.
func (r *Registry) Verify(username, password string) bool {
	r.mu.RLock()
	stored, ok := r.users[username]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.hasher.Compare(stored, password)
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

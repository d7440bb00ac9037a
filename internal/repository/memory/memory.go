// Package memory is an in-process user store for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fortify/fortify-go/internal/model"
	"github.com/fortify/fortify-go/internal/repository"
)

// UserStore keeps users in maps guarded by a single mutex, so the
// username/email uniqueness check and the insert happen atomically.
// Lookups are case-insensitive, matching the MySQL column collation.
type UserStore struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*model.User
	byUsername map[string]int64
	byEmail    map[string]int64
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[int64]*model.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
	}
}

// Create inserts user and assigns its ID.
func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(user.Username)
	if _, ok := s.byUsername[nameKey]; ok {
		return repository.ErrDuplicateUsername
	}
	emailKey := strings.ToLower(user.Email)
	if _, ok := s.byEmail[emailKey]; ok {
		return repository.ErrDuplicateEmail
	}

	s.nextID++
	now := time.Now().UTC()
	stored := *user
	stored.ID = s.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now

	s.byID[stored.ID] = &stored
	s.byUsername[nameKey] = stored.ID
	s.byEmail[emailKey] = stored.ID

	user.ID = stored.ID
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByUsername returns a copy of the user with the given username.
func (s *UserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

// GetByID returns a copy of the user with the given ID.
func (s *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// ExistsByUsername reports whether the username is taken.
func (s *UserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byUsername[strings.ToLower(username)]
	return ok, nil
}

// ExistsByEmail reports whether the email is registered.
func (s *UserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byEmail[strings.ToLower(email)]
	return ok, nil
}

// SetActive flips a user's active flag. It reports false for unknown IDs.
func (s *UserStore) SetActive(id int64, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return true
}

// Delete removes a user. It reports false for unknown IDs.
func (s *UserStore) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byUsername, strings.ToLower(u.Username))
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.byID, id)
	return true
}

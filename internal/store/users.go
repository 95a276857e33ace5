package store

import (
	"sort"
	"time"

	"cloudstash/internal/models"
)

// CreateUser inserts a new account with a zero usage counter. The username
// must be free and the account cap not yet reached; ErrDuplicateUser and
// ErrUserCapacity tell those failures apart for the registration page.
func (s *Store) CreateUser(username, email, salt, passwordHash string, storageLimit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	if _, ok := doc.Users[username]; ok {
		return ErrDuplicateUser
	}
	if len(doc.Users) >= s.maxUsers {
		return ErrUserCapacity
	}
	now := time.Now()
	doc.Users[username] = models.User{
		Email:        email,
		Salt:         salt,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		LastActive:   now,
		StorageUsed:  0,
		StorageLimit: storageLimit,
	}
	return s.save(doc)
}

// GetUser looks up one account.
func (s *Store) GetUser(username string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	u, ok := doc.Users[username]
	return u, ok
}

// AllUsernames returns every registered username, sorted.
func (s *Store) AllUsernames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	names := make([]string, 0, len(doc.Users))
	for name := range doc.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateUserActivity stamps the account's last-active time. Failures only
// affect a display field, so they are logged and swallowed.
func (s *Store) UpdateUserActivity(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	u, ok := doc.Users[username]
	if !ok {
		return
	}
	u.LastActive = time.Now()
	doc.Users[username] = u
	if err := s.save(doc); err != nil {
		s.log.Error().Err(err).Str("user", username).Msg("update last active")
	}
}

// UpdateUserStorage refreshes the cached usage snapshot shown on the storage
// page. The number that gates uploads is always a fresh directory scan, so
// this cache is display-only and may lag.
func (s *Store) UpdateUserStorage(username string, used int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.load()
	u, ok := doc.Users[username]
	if !ok {
		return
	}
	u.StorageUsed = used
	doc.Users[username] = u
	if err := s.save(doc); err != nil {
		s.log.Error().Err(err).Str("user", username).Msg("update storage usage")
	}
}

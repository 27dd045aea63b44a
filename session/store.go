package session

import "sync"

// Store holds the signed-in user id.
type Store interface {
	CurrentUserID() (string, bool)
	SetUserID(userID string) error
	Clear() error
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	userID string
}

// NewMemoryStore returns a store pre-populated with userID, which may be empty.
func NewMemoryStore(userID string) *MemoryStore {
	return &MemoryStore{userID: userID}
}

// CurrentUserID implements Store.
func (s *MemoryStore) CurrentUserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}

// SetUserID implements Store.
func (s *MemoryStore) SetUserID(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	return nil
}

package services

import (
	"context"
	"sort"
	"sync"

	"github.com/shourya0523/Pact-sub000/models"
)

// MemoryStore keeps notifications in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*models.Notification
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string]map[string]*models.Notification)}
}

// Insert implements NotificationStore.
func (s *MemoryStore) Insert(_ context.Context, userID string, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userNotifications, ok := s.byUser[userID]
	if !ok {
		userNotifications = make(map[string]*models.Notification)
		s.byUser[userID] = userNotifications
	}
	stored := n
	userNotifications[n.ID] = &stored
	return nil
}

// List implements NotificationStore. Results are newest first.
func (s *MemoryStore) List(_ context.Context, userID string, filter ListFilter) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Notification
	for _, n := range s.byUser[userID] {
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		if !filter.IncludeArchived && n.IsArchived {
			continue
		}
		out = append(out, *n)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Notification{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	if out == nil {
		out = []models.Notification{}
	}
	return out, nil
}

// Get implements NotificationStore.
func (s *MemoryStore) Get(_ context.Context, userID, id string) (models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byUser[userID][id]
	if !ok {
		return models.Notification{}, ErrNotificationNotFound
	}
	return *n, nil
}

// UnreadCount implements NotificationStore. Archived notifications are not counted.
func (s *MemoryStore) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if !n.IsRead && !n.IsArchived {
			count++
		}
	}
	return count, nil
}

// MarkRead implements NotificationStore.
func (s *MemoryStore) MarkRead(_ context.Context, userID, id string) error {
	return s.update(userID, id, func(n *models.Notification) { n.IsRead = true })
}

// MarkAllRead implements NotificationStore.
func (s *MemoryStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, n := range s.byUser[userID] {
		if !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

// Archive implements NotificationStore.
func (s *MemoryStore) Archive(_ context.Context, userID, id string) error {
	return s.update(userID, id, func(n *models.Notification) { n.IsArchived = true })
}

// Delete implements NotificationStore.
func (s *MemoryStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[userID][id]; !ok {
		return ErrNotificationNotFound
	}
	delete(s.byUser[userID], id)
	return nil
}

// Close implements NotificationStore.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) update(userID, id string, fn func(*models.Notification)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byUser[userID][id]
	if !ok {
		return ErrNotificationNotFound
	}
	fn(n)
	return nil
}

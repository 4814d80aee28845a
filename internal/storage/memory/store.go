package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/defect-portal/internal/storage"
)

var _ storage.SlotStore = (*Store)(nil)

type slot struct {
	items     map[string]string
	expiresAt time.Time
}

// Store keeps slots in process memory. Each write extends the slot's lifetime.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewStore creates an in-memory slot store whose slots expire ttl after their last write.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		slots: make(map[string]*slot),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go s.cleanupExpired(5 * time.Minute)
	return s
}

// Get returns key from a live slot, or storage.ErrNotFound.
func (s *Store) Get(_ context.Context, slotID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.slots[slotID]
	if !ok || s.now().After(sl.expiresAt) {
		return "", storage.ErrNotFound
	}
	value, ok := sl.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// Set writes key and extends the slot's lifetime.
func (s *Store) Set(_ context.Context, slotID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	if !ok || s.now().After(sl.expiresAt) {
		sl = &slot{items: make(map[string]string)}
		s.slots[slotID] = sl
	}
	sl.items[key] = value
	sl.expiresAt = s.now().Add(s.ttl)
	return nil
}

// Delete removes keys, dropping the slot once it is empty.
func (s *Store) Delete(_ context.Context, slotID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(sl.items, key)
	}
	if len(sl.items) == 0 {
		delete(s.slots, slotID)
	}
	return nil
}

// Size returns the number of live slots.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Close stops the cleanup routine.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *Store) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for id, sl := range s.slots {
				if now.After(sl.expiresAt) {
					delete(s.slots, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

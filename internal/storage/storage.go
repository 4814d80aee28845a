package storage

import (
	"context"
	"errors"
	"net/http"
)

// Keys held in a browser's persisted session slot.
const (
	KeyCurrentUser   = "currentUser"
	KeySessionExpiry = "sessionExpiry"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage is one browser's persisted key/value slot.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, keys ...string) error
}

// SlotStore persists many slots, addressed by slot id.
type SlotStore interface {
	Get(ctx context.Context, slot, key string) (string, error)
	Set(ctx context.Context, slot, key, value string) error
	Delete(ctx context.Context, slot string, keys ...string) error
	Close() error
}

// Resolver binds an incoming request to its storage slot, issuing a new slot
// when the request carries none.
type Resolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (Storage, error)
}

// Slot adapts a SlotStore to the Storage of a single slot id.
type Slot struct {
	store SlotStore
	id    string
}

// NewSlot returns the Storage view of slot id in store.
func NewSlot(store SlotStore, id string) *Slot {
	return &Slot{store: store, id: id}
}

// ID returns the slot identifier.
func (s *Slot) ID() string { return s.id }

// GetItem reads key from the slot.
func (s *Slot) GetItem(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.id, key)
}

// SetItem writes key in the slot.
func (s *Slot) SetItem(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.id, key, value)
}

// RemoveItem deletes keys from the slot.
func (s *Slot) RemoveItem(ctx context.Context, keys ...string) error {
	return s.store.Delete(ctx, s.id, keys...)
}

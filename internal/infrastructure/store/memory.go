package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/contactmerge/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory contact repository.
// List returns contacts in first-insertion order.
type MemoryStore struct {
	data  map[string]domain.ContactRecord
	order []string
	mutex sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]domain.ContactRecord),
	}
}

// List returns a copy of every stored contact
func (s *MemoryStore) List(ctx context.Context) ([]domain.ContactRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	records := make([]domain.ContactRecord, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.data[id].Clone())
	}
	return records, nil
}

// Get retrieves a contact by id
func (s *MemoryStore) Get(ctx context.Context, id string) (domain.ContactRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, exists := s.data[id]
	if !exists {
		return domain.ContactRecord{}, fmt.Errorf("%w: %q", domain.ErrContactNotFound, id)
	}
	return record.Clone(), nil
}

// Save inserts or replaces a contact; replacing keeps its list position
func (s *MemoryStore) Save(ctx context.Context, record domain.ContactRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: contact id is required", domain.ErrInvalidRequest)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.data[record.ID] = record.Clone()
	return nil
}

// Delete removes contacts; unknown ids are ignored
func (s *MemoryStore) Delete(ctx context.Context, ids ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, exists := s.data[id]; exists {
			delete(s.data, id)
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		return nil
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if !removed[id] {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

// Size returns the current number of contacts
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}

// Clear removes all contacts
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = make(map[string]domain.ContactRecord)
	s.order = nil
}

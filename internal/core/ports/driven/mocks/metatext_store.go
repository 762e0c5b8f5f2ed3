package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure MockMetatextStore implements MetatextStore
var _ driven.MetatextStore = (*MockMetatextStore)(nil)

// MockMetatextStore is a mock implementation of MetatextStore for testing
type MockMetatextStore struct {
	mu        sync.RWMutex
	metatexts map[int64]*domain.Metatext
	nextID    int64
}

// NewMockMetatextStore creates a new MockMetatextStore
func NewMockMetatextStore() *MockMetatextStore {
	return &MockMetatextStore{
		metatexts: make(map[int64]*domain.Metatext),
	}
}

func (m *MockMetatextStore) Save(ctx context.Context, metatext *domain.Metatext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if metatext.ID == 0 {
		m.nextID++
		metatext.ID = m.nextID
	} else if metatext.ID > m.nextID {
		m.nextID = metatext.ID
	}
	m.metatexts[metatext.ID] = metatext
	return nil
}

func (m *MockMetatextStore) Get(ctx context.Context, id int64) (*domain.Metatext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metatext, ok := m.metatexts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return metatext, nil
}

func (m *MockMetatextStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Metatext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Metatext
	for _, metatext := range m.metatexts {
		if metatext.OwnerID == ownerID {
			result = append(result, metatext)
		}
	}
	return result, nil
}

func (m *MockMetatextStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.metatexts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.metatexts, id)
	return nil
}

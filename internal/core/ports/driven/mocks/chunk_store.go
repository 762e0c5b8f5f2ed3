package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure MockChunkStore implements ChunkStore
var _ driven.ChunkStore = (*MockChunkStore)(nil)

// MockChunkStore is a mock implementation of ChunkStore for testing.
// Reads return copies, the way a database would.
type MockChunkStore struct {
	mu     sync.RWMutex
	chunks map[int64]*domain.Chunk
	nextID int64

	// ListCalls counts ListByMetatext calls
	ListCalls int
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks: make(map[int64]*domain.Chunk),
	}
}

func (m *MockChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range chunks {
		if chunk.ID == 0 {
			m.nextID++
			chunk.ID = m.nextID
		} else if chunk.ID > m.nextID {
			m.nextID = chunk.ID
		}
		c := *chunk
		m.chunks[chunk.ID] = &c
	}
	return nil
}

func (m *MockChunkStore) Get(ctx context.Context, id int64) (*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunk, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *chunk
	return &c, nil
}

func (m *MockChunkStore) ListByMetatext(ctx context.Context, metatextID int64) ([]*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++

	var result []*domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.MetatextID == metatextID {
			c := *chunk
			result = append(result, &c)
		}
	}
	slices.SortFunc(result, func(a, b *domain.Chunk) int {
		return a.Position - b.Position
	})
	return result, nil
}

func (m *MockChunkStore) SetFavorite(ctx context.Context, chunkID int64, userID string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunk, ok := m.chunks[chunkID]
	if !ok {
		return domain.ErrNotFound
	}
	if favorite {
		chunk.FavoritedByUserID = &userID
	} else {
		chunk.FavoritedByUserID = nil
	}
	return nil
}

func (m *MockChunkStore) SetBookmark(ctx context.Context, chunkID int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.chunks[chunkID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, chunk := range m.chunks {
		if chunk.MetatextID == target.MetatextID && chunk.IsBookmarkedBy(userID) {
			chunk.BookmarkedByUserID = nil
		}
	}
	target.BookmarkedByUserID = &userID
	return nil
}

func (m *MockChunkStore) ClearBookmark(ctx context.Context, chunkID int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunk, ok := m.chunks[chunkID]
	if !ok {
		return domain.ErrNotFound
	}
	if chunk.IsBookmarkedBy(userID) {
		chunk.BookmarkedByUserID = nil
	}
	return nil
}

func (m *MockChunkStore) GetBookmark(ctx context.Context, metatextID int64, userID string) (*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, chunk := range m.chunks {
		if chunk.MetatextID == metatextID && chunk.IsBookmarkedBy(userID) {
			c := *chunk
			return &c, nil
		}
	}
	return nil, domain.ErrNoBookmark
}

// Helper methods for testing

func (m *MockChunkStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

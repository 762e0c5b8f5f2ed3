package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Ensure mocks implement their ports
var (
	_ driven.ViewStateStore  = (*MockViewStateStore)(nil)
	_ driven.NavigationStore = (*MockNavigationStore)(nil)
)

func viewKey(userID string, metatextID int64) string {
	return fmt.Sprintf("%s:%d", userID, metatextID)
}

// MockViewStateStore is a mock implementation of ViewStateStore for testing
type MockViewStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.ViewState
	saves  int
}

// NewMockViewStateStore creates a new MockViewStateStore
func NewMockViewStateStore() *MockViewStateStore {
	return &MockViewStateStore{
		states: make(map[string]domain.ViewState),
	}
}

func (m *MockViewStateStore) Get(ctx context.Context, userID string, metatextID int64) (*domain.ViewState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[viewKey(userID, metatextID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

func (m *MockViewStateStore) Save(ctx context.Context, state *domain.ViewState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[viewKey(state.UserID, state.MetatextID)] = *state
	m.saves++
	return nil
}

func (m *MockViewStateStore) Delete(ctx context.Context, userID string, metatextID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, viewKey(userID, metatextID))
	return nil
}

// Saves returns the number of Save calls
func (m *MockViewStateStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// MockNavigationStore is a mock implementation of NavigationStore for testing
type MockNavigationStore struct {
	mu       sync.Mutex
	requests map[string]domain.NavigationRequest
}

// NewMockNavigationStore creates a new MockNavigationStore
func NewMockNavigationStore() *MockNavigationStore {
	return &MockNavigationStore{
		requests: make(map[string]domain.NavigationRequest),
	}
}

func (m *MockNavigationStore) Put(ctx context.Context, req *domain.NavigationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[viewKey(req.UserID, req.MetatextID)] = *req
	return nil
}

func (m *MockNavigationStore) Take(ctx context.Context, userID string, metatextID int64) (*domain.NavigationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := viewKey(userID, metatextID)
	req, ok := m.requests[key]
	if !ok {
		return nil, nil
	}
	delete(m.requests, key)
	return &req, nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.ViewStateStore  = (*ViewStateStore)(nil)
	_ driven.NavigationStore = (*NavigationStore)(nil)
)

const (
	// Key prefixes for Redis
	viewStatePrefix  = "metatext:view:"
	navigationPrefix = "metatext:nav:"

	// DefaultViewStateTTL keeps an untouched view for a month
	DefaultViewStateTTL = 30 * 24 * time.Hour

	// DefaultNavigationTTL drops navigation requests nobody consumed
	DefaultNavigationTTL = 10 * time.Minute
)

func viewKey(prefix, userID string, metatextID int64) string {
	return fmt.Sprintf("%s%s:%d", prefix, userID, metatextID)
}

// ViewStateStore implements driven.ViewStateStore using Redis.
// Each save refreshes the key's TTL.
type ViewStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewStateStore creates a Redis-backed ViewStateStore.
// A non-positive ttl uses DefaultViewStateTTL.
func NewViewStateStore(client *redis.Client, ttl time.Duration) *ViewStateStore {
	if ttl <= 0 {
		ttl = DefaultViewStateTTL
	}
	return &ViewStateStore{client: client, ttl: ttl}
}

// Get retrieves the view state for a user and metatext
func (s *ViewStateStore) Get(ctx context.Context, userID string, metatextID int64) (*domain.ViewState, error) {
	data, err := s.client.Get(ctx, viewKey(viewStatePrefix, userID, metatextID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get view state: %w", err)
	}

	var state domain.ViewState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal view state: %w", err)
	}
	return &state, nil
}

// Save stores the view state
func (s *ViewStateStore) Save(ctx context.Context, state *domain.ViewState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal view state: %w", err)
	}

	if err := s.client.Set(ctx, viewKey(viewStatePrefix, state.UserID, state.MetatextID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save view state: %w", err)
	}
	return nil
}

// Delete removes the view state
func (s *ViewStateStore) Delete(ctx context.Context, userID string, metatextID int64) error {
	if err := s.client.Del(ctx, viewKey(viewStatePrefix, userID, metatextID)).Err(); err != nil {
		return fmt.Errorf("failed to delete view state: %w", err)
	}
	return nil
}

// NavigationStore implements driven.NavigationStore using Redis.
// Take uses GETDEL so a request is consumed by exactly one reader.
type NavigationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNavigationStore creates a Redis-backed NavigationStore.
// A non-positive ttl uses DefaultNavigationTTL.
func NewNavigationStore(client *redis.Client, ttl time.Duration) *NavigationStore {
	if ttl <= 0 {
		ttl = DefaultNavigationTTL
	}
	return &NavigationStore{client: client, ttl: ttl}
}

// Put stores a request, replacing any pending one
func (s *NavigationStore) Put(ctx context.Context, req *domain.NavigationRequest) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal navigation request: %w", err)
	}

	if err := s.client.Set(ctx, viewKey(navigationPrefix, req.UserID, req.MetatextID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save navigation request: %w", err)
	}
	return nil
}

// Take returns and removes the pending request, or nil when there is none
func (s *NavigationStore) Take(ctx context.Context, userID string, metatextID int64) (*domain.NavigationRequest, error) {
	data, err := s.client.GetDel(ctx, viewKey(navigationPrefix, userID, metatextID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take navigation request: %w", err)
	}

	var req domain.NavigationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal navigation request: %w", err)
	}
	return &req, nil
}

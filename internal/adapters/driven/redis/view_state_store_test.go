package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

func TestViewStateStore_SaveAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewViewStateStore(client, time.Hour)
	ctx := context.Background()

	state := &domain.ViewState{
		UserID:        "user-1",
		MetatextID:    7,
		Query:         "whale",
		OnlyFavorites: true,
		CurrentPage:   3,
		ChunksPerPage: 10,
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("unexpected error saving view state: %v", err)
	}
	if state.UpdatedAt.IsZero() {
		t.Error("expected Save to stamp UpdatedAt")
	}

	got, err := store.Get(ctx, "user-1", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Query != "whale" || !got.OnlyFavorites || got.CurrentPage != 3 || got.ChunksPerPage != 10 {
		t.Errorf("unexpected state: %+v", got)
	}

	if ttl := mr.TTL(viewStatePrefix + "user-1:7"); ttl != time.Hour {
		t.Errorf("expected TTL 1h, got %v", ttl)
	}
}

func TestViewStateStore_Get_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewViewStateStore(client, 0)

	_, err := store.Get(context.Background(), "user-1", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestViewStateStore_Get_InvalidJSON(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewViewStateStore(client, 0)

	if err := mr.Set(viewStatePrefix+"user-1:1", "not json"); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	_, err := store.Get(context.Background(), "user-1", 1)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestViewStateStore_KeysAreScoped(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewViewStateStore(client, 0)
	ctx := context.Background()

	_ = store.Save(ctx, &domain.ViewState{UserID: "a", MetatextID: 1, CurrentPage: 2, ChunksPerPage: 5})
	_ = store.Save(ctx, &domain.ViewState{UserID: "b", MetatextID: 1, CurrentPage: 4, ChunksPerPage: 5})
	_ = store.Save(ctx, &domain.ViewState{UserID: "a", MetatextID: 2, CurrentPage: 6, ChunksPerPage: 5})

	for _, tc := range []struct {
		user string
		id   int64
		page int
	}{
		{"a", 1, 2},
		{"b", 1, 4},
		{"a", 2, 6},
	} {
		got, err := store.Get(ctx, tc.user, tc.id)
		if err != nil {
			t.Fatalf("Get(%s, %d): %v", tc.user, tc.id, err)
		}
		if got.CurrentPage != tc.page {
			t.Errorf("Get(%s, %d): expected page %d, got %d", tc.user, tc.id, tc.page, got.CurrentPage)
		}
	}
}

func TestViewStateStore_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewViewStateStore(client, 0)
	ctx := context.Background()

	_ = store.Save(ctx, &domain.ViewState{UserID: "a", MetatextID: 1})
	if err := store.Delete(ctx, "a", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "a", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is not an error
	if err := store.Delete(ctx, "a", 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestViewStateStore_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewViewStateStore(client, time.Minute)
	ctx := context.Background()

	_ = store.Save(ctx, &domain.ViewState{UserID: "a", MetatextID: 1})
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "a", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestNavigationStore_TakeOnce(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewNavigationStore(client, 0)
	ctx := context.Background()

	if err := store.Put(ctx, &domain.NavigationRequest{UserID: "a", MetatextID: 1, ChunkID: 42}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := store.Take(ctx, "a", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req == nil || req.ChunkID != 42 {
		t.Fatalf("expected request for chunk 42, got %+v", req)
	}
	if req.RequestedAt.IsZero() {
		t.Error("expected RequestedAt to be stamped")
	}

	req, err = store.Take(ctx, "a", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req != nil {
		t.Errorf("expected request to be consumed, got %+v", req)
	}
}

func TestNavigationStore_PutReplaces(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewNavigationStore(client, 0)
	ctx := context.Background()

	_ = store.Put(ctx, &domain.NavigationRequest{UserID: "a", MetatextID: 1, ChunkID: 1})
	_ = store.Put(ctx, &domain.NavigationRequest{UserID: "a", MetatextID: 1, ChunkID: 2})

	req, _ := store.Take(ctx, "a", 1)
	if req == nil || req.ChunkID != 2 {
		t.Errorf("expected latest request, got %+v", req)
	}
}

func TestNavigationStore_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewNavigationStore(client, time.Minute)
	ctx := context.Background()

	_ = store.Put(ctx, &domain.NavigationRequest{UserID: "a", MetatextID: 1, ChunkID: 1})
	mr.FastForward(2 * time.Minute)

	req, err := store.Take(ctx, "a", 1)
	if err != nil || req != nil {
		t.Errorf("expected expired request to be gone, got %+v, %v", req, err)
	}
}

func TestNavigationStore_ConcurrentTake(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewNavigationStore(client, 0)
	ctx := context.Background()

	_ = store.Put(ctx, &domain.NavigationRequest{UserID: "a", MetatextID: 1, ChunkID: 9})

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := store.Take(ctx, "a", 1)
			if err == nil && req != nil {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if taken != 1 {
		t.Errorf("expected exactly one taker, got %d", taken)
	}
}

package driven

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// ViewStateStore persists per-user chunk view settings (Redis or PostgreSQL)
type ViewStateStore interface {
	// Get retrieves the view state. Returns domain.ErrNotFound when none was saved.
	Get(ctx context.Context, userID string, metatextID int64) (*domain.ViewState, error)

	// Save stores the view state
	Save(ctx context.Context, state *domain.ViewState) error

	// Delete removes the view state
	Delete(ctx context.Context, userID string, metatextID int64) error
}

// NavigationStore holds one-shot "go to chunk" requests.
// A stored request is returned by Take at most once.
type NavigationStore interface {
	// Put stores a request, replacing any pending one for the same user and metatext
	Put(ctx context.Context, req *domain.NavigationRequest) error

	// Take returns and removes the pending request.
	// Returns nil, nil when there is none.
	Take(ctx context.Context, userID string, metatextID int64) (*domain.NavigationRequest, error)
}

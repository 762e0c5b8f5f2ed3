package driving

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// ChunkViewService owns each user's paginated, filtered view of a metatext's chunks
type ChunkViewService interface {
	// GetWindow returns the current page window. A pending navigation request
	// is consumed and applied first.
	GetWindow(ctx context.Context, userID string, metatextID int64) (*domain.PageWindow, error)

	// UpdateView applies query, favorites, page and page-size changes.
	// A changed query takes effect after the search debounce.
	UpdateView(ctx context.Context, userID string, metatextID int64, update domain.ViewUpdate) (*domain.PageWindow, error)

	// GoToChunk moves to the page holding chunkID in the filtered view.
	// A chunk outside the filtered view leaves the window unchanged.
	GoToChunk(ctx context.Context, userID string, metatextID, chunkID int64) (*domain.PageWindow, error)

	// RequestNavigation records a one-shot navigation for the next GetWindow
	RequestNavigation(ctx context.Context, userID string, metatextID, chunkID int64) error

	// SetFavorite marks or unmarks a chunk as favorite
	SetFavorite(ctx context.Context, userID string, chunkID int64, favorite bool) error

	// SetBookmark places or removes the user's bookmark on a chunk
	SetBookmark(ctx context.Context, userID string, chunkID int64, bookmarked bool) error

	// GoToBookmark navigates to the user's bookmarked chunk.
	// Returns domain.ErrNoBookmark when the user has none in the metatext.
	GoToBookmark(ctx context.Context, userID string, metatextID int64) (*domain.PageWindow, error)

	// Invalidate reloads the chunks of every live view of a metatext
	Invalidate(ctx context.Context, metatextID int64) error

	// Close releases every live view
	Close()
}

package driven

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// MetatextStore handles metatext persistence (PostgreSQL)
type MetatextStore interface {
	// Save creates or updates a metatext. A zero ID is assigned by the store.
	Save(ctx context.Context, metatext *domain.Metatext) error

	// Get retrieves a metatext by ID
	Get(ctx context.Context, id int64) (*domain.Metatext, error)

	// ListByOwner retrieves all metatexts owned by a user
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Metatext, error)

	// Delete deletes a metatext and its chunks
	Delete(ctx context.Context, id int64) error
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch saves multiple chunks in a transaction, assigning IDs to new ones
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// Get retrieves a chunk by ID, with its images
	Get(ctx context.Context, id int64) (*domain.Chunk, error)

	// ListByMetatext retrieves all chunks of a metatext ordered by position
	ListByMetatext(ctx context.Context, metatextID int64) ([]*domain.Chunk, error)

	// SetFavorite marks or unmarks a chunk as the user's favorite
	SetFavorite(ctx context.Context, chunkID int64, userID string, favorite bool) error

	// SetBookmark moves the user's bookmark in the chunk's metatext to chunkID.
	// Any other bookmark the user holds in that metatext is cleared.
	SetBookmark(ctx context.Context, chunkID int64, userID string) error

	// ClearBookmark removes the user's bookmark from a chunk
	ClearBookmark(ctx context.Context, chunkID int64, userID string) error

	// GetBookmark returns the chunk the user bookmarked in a metatext.
	// Returns domain.ErrNoBookmark when there is none.
	GetBookmark(ctx context.Context, metatextID int64, userID string) (*domain.Chunk, error)
}

package driving

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// MetatextService provides read access to a user's metatexts
type MetatextService interface {
	// Get retrieves a metatext the user owns
	Get(ctx context.Context, userID string, id int64) (*domain.Metatext, error)

	// GetWithChunks retrieves a metatext with its chunks in position order
	GetWithChunks(ctx context.Context, userID string, id int64) (*domain.MetatextWithChunks, error)

	// List retrieves all metatexts the user owns
	List(ctx context.Context, userID string) ([]*domain.Metatext, error)
}

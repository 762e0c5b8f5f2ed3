package driven

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// UserStore persists accounts. Emails are stored lower-cased and unique;
// lookups of a missing user return domain.ErrNotFound.
type UserStore interface {
	// Save inserts or replaces the user with the same ID
	Save(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

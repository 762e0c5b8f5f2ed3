package driving

import (
	"context"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
)

// AuthService issues and checks bearer tokens
type AuthService interface {
	// Authenticate checks an email and password and returns a signed token
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken resolves a token to the caller. It fails with
	// ErrTokenExpired, ErrTokenInvalid, or ErrUnauthorized when the
	// account is gone or deactivated.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}

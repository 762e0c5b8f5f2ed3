package driven

import "github.com/custodia-labs/metatext-core/internal/core/domain"

// AuthAdapter hashes passwords and signs tokens. Tokens are stateless;
// nothing is persisted.
type AuthAdapter interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool

	GenerateToken(claims *domain.TokenClaims) (string, error)

	// ParseToken returns domain.ErrTokenExpired for a well-formed but
	// expired token and domain.ErrTokenInvalid for anything else it rejects
	ParseToken(token string) (*domain.TokenClaims, error)
}

package auth

import "qualidoc/internal/domain/models"

// TokenVerifier validates access tokens and extracts claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.AccessClaims, error)
	Close() error
}

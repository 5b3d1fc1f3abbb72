package models

import "github.com/golang-jwt/jwt/v5"

// Role is the application role carried in the access token.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleQuality Role = "quality" // may approve/reject revisions and manage distributions
	RoleUser    Role = "user"
)

// AccessClaims are the JWT claims issued by the identity provider.
// The provider is treated as an opaque collaborator: this service only
// consumes the subject (user id) and the application role.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role    string `json:"role"`     // identity-provider role, must be "authenticated"
	AppRole Role   `json:"app_role"` // application role, defaults to RoleUser
	Email   string `json:"email,omitempty"`
}

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   string
	Role Role
}

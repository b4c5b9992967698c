package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller identity issued by the Kuwago identity service.
// UserID is the borrower or lender id the token was minted for.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether at least one of roles is present.
func (c Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.HasRole(r) {
			return true
		}
	}
	return false
}

// Role constants
const (
	RoleBorrower = "borrower"
	RoleLender   = "lender"
	RoleAdmin    = "admin"
	// RoleGateway is held by the payment-gateway collaborator that settles
	// electronic payments.
	RoleGateway = "gateway"
)

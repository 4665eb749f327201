package domain

import "errors"

// User is the authenticated caller, as asserted by a verified bearer token.
type User struct {
	ID    string
	Email string
	Role  Role
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access, including balance override
	RoleAdmin Role = "admin"

	// RoleTreasurer records transactions, documents and payments
	RoleTreasurer Role = "treasurer"

	// RoleViewer can only read
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer:    1,
	RoleTreasurer: 2,
	RoleAdmin:     3,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants every permission of min.
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && roleRank[r] >= roleRank[min]
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

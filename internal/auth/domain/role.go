package domain

import "errors"

// Role is the closed set of membership roles. Anything else is rejected at
// the HTTP boundary before it reaches the store.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

var ErrInvalidRole = errors.New("domain: invalid role")

// ParseRole validates a wire-level role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleStandard:
		return Role(s), nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string { return string(r) }

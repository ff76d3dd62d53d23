package domain

import "time"

type User struct {
	ID            string
	CompanyID     string
	Email         string // stored lowercase, unique across all tenants
	PasswordHash  string // argon2id encoded, never the raw password
	EmailVerified bool
	Role          Role

	// PasswordUpdatedAt invalidates session tokens issued before it.
	PasswordUpdatedAt *time.Time
	LastLoginAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

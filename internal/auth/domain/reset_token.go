package domain

import "time"

// ResetToken is a single-use password-reset credential. Only the SHA-256
// fingerprint of the raw token is ever persisted.
type ResetToken struct {
	ID        string
	TokenHash string
	Email     string // stored lowercase
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
}

// Usable reports whether the token can still redeem a reset at time now.
func (t ResetToken) Usable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

package domain

import "time"

// Company is the tenant and billing unit. It owns users and invites, and its
// MaxUsers seat cap bounds verified users plus pending invites.
type Company struct {
	ID        string
	Name      string
	Domain    string // lowercase email domain, globally unique
	MaxUsers  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

package domain

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
)

// Invite is a pending seat for a tenant. The authorisation to redeem it
// travels in a signed 24h token; the row tracks lifecycle and seat usage.
// Status only moves PENDING -> ACCEPTED; deletion is a separate operation.
type Invite struct {
	ID         string
	CompanyID  string
	Email      string // stored lowercase
	Status     InviteStatus
	InvitedBy  string // user id of the inviting admin
	Role       Role
	InvitedAt  time.Time // bumped in place on resend
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

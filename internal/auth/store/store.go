package store

import (
	"context"
	"errors"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories are exposed as methods to keep concerns
// tidy and to stop callers accidentally nesting transactions.
type Store interface {
	Companies() Companies
	Users() Users
	Invites() Invites
	ResetTokens() ResetTokens
	Settings() Settings

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Use this for
	// multi-step operations that must be atomic (e.g. seat-cap check plus
	// invite creation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Companies interface {
	// GetCompanyByID returns a company by id.
	GetCompanyByID(ctx context.Context, id string) (domain.Company, error)

	// GetCompanyByDomain looks a company up by its lowercase email domain.
	GetCompanyByDomain(ctx context.Context, emailDomain string) (domain.Company, error)

	// CreateCompany inserts a new company (id is provided by the app via ULID).
	// Returns ErrAlreadyExists if the domain is taken.
	CreateCompany(ctx context.Context, c domain.Company) error

	// UpdateMaxUsers changes the seat cap and bumps updated_at.
	UpdateMaxUsers(ctx context.Context, companyID string, maxUsers int) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively; email uniqueness is global,
	// not per-tenant.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists on a duplicate
	// email.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkEmailVerified sets email_verified and bumps updated_at.
	MarkEmailVerified(ctx context.Context, userID string) error

	// UpdatePasswordHash sets the hash and stamps password_updated_at, which
	// retires any session token issued before that instant.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// TouchLastLogin records a successful sign-in.
	TouchLastLogin(ctx context.Context, userID string) error

	// DeleteUser removes the row. Invite cleanup is the caller's business.
	DeleteUser(ctx context.Context, userID string) error

	// ListCompanyUsers returns a tenant's users ordered by creation date.
	ListCompanyUsers(ctx context.Context, companyID string) ([]domain.User, error)

	// CountVerifiedUsers counts the tenant's email-verified users (the
	// "active" side of seat accounting).
	CountVerifiedUsers(ctx context.Context, companyID string) (int, error)

	// CountAdmins backs the last-admin delete guard.
	CountAdmins(ctx context.Context, companyID string) (int, error)
}

type Invites interface {
	// CreateInvite inserts a PENDING invite. The driver enforces at most one
	// PENDING invite per (company, email) and returns ErrAlreadyExists when
	// the slot is taken, closing the read-then-write race.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetInviteByID is tenant-scoped; an id from another company yields
	// ErrNotFound.
	GetInviteByID(ctx context.Context, companyID, inviteID string) (domain.Invite, error)

	// GetPendingInviteByEmail finds the tenant's PENDING invite for an email,
	// case-insensitively.
	GetPendingInviteByEmail(ctx context.Context, companyID, email string) (domain.Invite, error)

	// TouchInvitedAt bumps invited_at on resend; the row is never recreated.
	TouchInvitedAt(ctx context.Context, inviteID string) error

	// MarkInviteAccepted flips status PENDING->ACCEPTED and stamps
	// accepted_at. Accepted rows are terminal.
	MarkInviteAccepted(ctx context.Context, inviteID string) error

	// DeleteInvite removes a row of any status within the tenant.
	DeleteInvite(ctx context.Context, companyID, inviteID string) error

	// DeleteInvitesByEmail removes all invite rows for an email within the
	// tenant (user-deletion cascade).
	DeleteInvitesByEmail(ctx context.Context, companyID, email string) error

	// ListCompanyInvites returns a tenant's invites newest first.
	ListCompanyInvites(ctx context.Context, companyID string) ([]domain.Invite, error)

	// CountPendingInvites counts the tenant's PENDING invites (the reserved
	// side of seat accounting).
	CountPendingInvites(ctx context.Context, companyID string) (int, error)

	// DeleteStalePendingInvites is housekeeping: drops PENDING rows whose
	// invited_at is older than the cutoff.
	DeleteStalePendingInvites(ctx context.Context, cutoff time.Time) error
}

type ResetTokens interface {
	// CreateResetToken stores a new hashed reset token.
	CreateResetToken(ctx context.Context, t domain.ResetToken) error

	// GetResetTokenByHash returns the row for a fingerprint regardless of
	// used/expired state; the service decides usability.
	GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error)

	// MarkResetTokenUsed flips used=1 and stamps used_at.
	MarkResetTokenUsed(ctx context.Context, id string) error

	// InvalidateResetTokensForEmail marks every outstanding unused token for
	// the email as used (replay defence after a successful reset).
	InvalidateResetTokensForEmail(ctx context.Context, email string) error

	// DeleteExpiredResetTokens is housekeeping.
	DeleteExpiredResetTokens(ctx context.Context) error
}

type Settings interface {
	// GetSettings returns the singleton row, or ErrNotFound before seeding.
	GetSettings(ctx context.Context) (domain.Settings, error)

	// UpsertSettings creates or updates the singleton row.
	UpsertSettings(ctx context.Context, s domain.Settings) error
}

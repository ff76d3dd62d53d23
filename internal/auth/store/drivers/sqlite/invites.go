package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
)

type invitesRepo struct {
	db dbtx
}

const inviteCols = `id, company_id, email, status, invited_by, role,
	invited_at, accepted_at, created_at, updated_at`

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	// The partial unique index on (company_id, email) WHERE status='PENDING'
	// turns a concurrent duplicate into ErrAlreadyExists here.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (id, company_id, email, status, invited_by, role, invited_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.CompanyID, strings.ToLower(inv.Email), string(inv.Status),
		inv.InvitedBy, string(inv.Role), inv.InvitedAt)
	return mapErr(err)
}

func (r *invitesRepo) GetInviteByID(ctx context.Context, companyID, inviteID string) (domain.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		`SELECT `+inviteCols+` FROM invites WHERE id = ? AND company_id = ?`,
		inviteID, companyID))
}

func (r *invitesRepo) GetPendingInviteByEmail(ctx context.Context, companyID, email string) (domain.Invite, error) {
	return scanInvite(r.db.QueryRowContext(ctx,
		`SELECT `+inviteCols+` FROM invites
		 WHERE company_id = ? AND email = ? AND status = 'PENDING'`,
		companyID, strings.ToLower(email)))
}

func (r *invitesRepo) TouchInvitedAt(ctx context.Context, inviteID string) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE invites SET invited_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, inviteID))
}

func (r *invitesRepo) MarkInviteAccepted(ctx context.Context, inviteID string) error {
	// Status only moves forward; an already-ACCEPTED row is left untouched.
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE invites
		 SET status = 'ACCEPTED', accepted_at = CURRENT_TIMESTAMP,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'PENDING'`, inviteID))
}

func (r *invitesRepo) DeleteInvite(ctx context.Context, companyID, inviteID string) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM invites WHERE id = ? AND company_id = ?`,
		inviteID, companyID))
}

func (r *invitesRepo) DeleteInvitesByEmail(ctx context.Context, companyID, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM invites WHERE company_id = ? AND email = ?`,
		companyID, strings.ToLower(email))
	return mapErr(err)
}

func (r *invitesRepo) ListCompanyInvites(ctx context.Context, companyID string) ([]domain.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inviteCols+` FROM invites WHERE company_id = ? ORDER BY invited_at DESC`,
		companyID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitesRepo) CountPendingInvites(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invites WHERE company_id = ? AND status = 'PENDING'`,
		companyID).Scan(&n)
	return n, mapErr(err)
}

func (r *invitesRepo) DeleteStalePendingInvites(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM invites WHERE status = 'PENDING' AND invited_at < ?`, cutoff)
	return mapErr(err)
}

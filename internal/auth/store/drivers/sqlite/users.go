package sqlite

import (
	"context"
	"strings"

	"github.com/onevision/baselogin/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userCols = `id, company_id, email, password_hash, email_verified, role,
	password_updated_at, last_login_at, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	// email is COLLATE NOCASE so the comparison is case-insensitive either way
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email = ?`, strings.ToLower(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, company_id, email, password_hash, email_verified, role)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.CompanyID, strings.ToLower(u.Email), u.PasswordHash, u.EmailVerified, string(u.Role))
	return mapErr(err)
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID string) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, password_updated_at = CURRENT_TIMESTAMP,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		newHash, userID))
}

func (r *usersRepo) TouchLastLogin(ctx context.Context, userID string) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	return rowsAffected(r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = ?`, userID))
}

func (r *usersRepo) ListCompanyUsers(ctx context.Context, companyID string) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE company_id = ? ORDER BY created_at ASC`,
		companyID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) CountVerifiedUsers(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE company_id = ? AND email_verified = 1`,
		companyID).Scan(&n)
	return n, mapErr(err)
}

func (r *usersRepo) CountAdmins(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE company_id = ? AND role = 'admin'`,
		companyID).Scan(&n)
	return n, mapErr(err)
}

package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/onevision/baselogin/internal/auth/domain"
)

type resetTokensRepo struct {
	db dbtx
}

func (r *resetTokensRepo) CreateResetToken(ctx context.Context, t domain.ResetToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reset_tokens (id, token_hash, email, created_at, expires_at, used)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		t.ID, t.TokenHash, strings.ToLower(t.Email), t.CreatedAt, t.ExpiresAt)
	return mapErr(err)
}

func (r *resetTokensRepo) GetResetTokenByHash(ctx context.Context, hash string) (domain.ResetToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, token_hash, email, created_at, expires_at, used, used_at
		 FROM reset_tokens WHERE token_hash = ?`, hash)

	var t domain.ResetToken
	var usedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.TokenHash, &t.Email, &t.CreatedAt, &t.ExpiresAt, &t.Used, &usedAt); err != nil {
		return domain.ResetToken{}, mapErr(err)
	}
	t.UsedAt = mapNullTimePtr(usedAt)
	return t, nil
}

func (r *resetTokensRepo) MarkResetTokenUsed(ctx context.Context, id string) error {
	// Only unused tokens flip; a second redemption sees ErrNotFound.
	return rowsAffected(r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1, used_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND used = 0`, id))
}

func (r *resetTokensRepo) InvalidateResetTokensForEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used = 1, used_at = CURRENT_TIMESTAMP
		 WHERE email = ? AND used = 0`, strings.ToLower(email))
	return mapErr(err)
}

func (r *resetTokensRepo) DeleteExpiredResetTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reset_tokens WHERE expires_at < CURRENT_TIMESTAMP OR used = 1`)
	return mapErr(err)
}

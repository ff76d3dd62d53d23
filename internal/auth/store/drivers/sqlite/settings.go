package sqlite

import (
	"context"

	"github.com/onevision/baselogin/internal/auth/domain"
)

type settingsRepo struct {
	db dbtx
}

func (r *settingsRepo) GetSettings(ctx context.Context) (domain.Settings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, default_max_users, updated_by, updated_at FROM settings WHERE id = ?`,
		domain.SettingsID)

	var s domain.Settings
	if err := row.Scan(&s.ID, &s.DefaultMaxUsers, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		return domain.Settings{}, mapErr(err)
	}
	return s, nil
}

func (r *settingsRepo) UpsertSettings(ctx context.Context, s domain.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, default_max_users, updated_by, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		     default_max_users = excluded.default_max_users,
		     updated_by = excluded.updated_by,
		     updated_at = CURRENT_TIMESTAMP`,
		domain.SettingsID, s.DefaultMaxUsers, s.UpdatedBy)
	return mapErr(err)
}

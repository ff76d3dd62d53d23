package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/store"

	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the repos can run inside
// or outside a transaction unchanged.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &txStore{tx: tx}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback is safe to call even after commit.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Companies() store.Companies     { return &companiesRepo{db: s.db} }
func (s *Store) Users() store.Users             { return &usersRepo{db: s.db} }
func (s *Store) Invites() store.Invites         { return &invitesRepo{db: s.db} }
func (s *Store) ResetTokens() store.ResetTokens { return &resetTokensRepo{db: s.db} }
func (s *Store) Settings() store.Settings       { return &settingsRepo{db: s.db} }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return store.ErrAlreadyExists
	default:
		return err
	}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

// rowsAffected converts a zero-row UPDATE/DELETE into ErrNotFound so the
// services can distinguish "missing" from "done".
func rowsAffected(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u        domain.User
		role     string
		pwUpd    sql.NullTime
		lastSeen sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.CompanyID, &u.Email, &u.PasswordHash, &u.EmailVerified,
		&role, &pwUpd, &lastSeen, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	u.Role = domain.Role(role)
	u.PasswordUpdatedAt = mapNullTimePtr(pwUpd)
	u.LastLoginAt = mapNullTimePtr(lastSeen)
	return u, nil
}

func scanInvite(row interface{ Scan(...any) error }) (domain.Invite, error) {
	var (
		inv      domain.Invite
		status   string
		role     string
		accepted sql.NullTime
	)
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Email, &status, &inv.InvitedBy, &role,
		&inv.InvitedAt, &accepted, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invite{}, mapErr(err)
	}
	inv.Status = domain.InviteStatus(status)
	inv.Role = domain.Role(role)
	inv.AcceptedAt = mapNullTimePtr(accepted)
	return inv, nil
}

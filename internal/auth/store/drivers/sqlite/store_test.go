package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedCompany(t *testing.T, st *Store, emailDomain string) domain.Company {
	t.Helper()

	c := domain.Company{
		ID:       idx.New().String(),
		Name:     emailDomain,
		Domain:   emailDomain,
		MaxUsers: 5,
	}
	require.NoError(t, st.Companies().CreateCompany(context.Background(), c))
	return c
}

// seedAdmin creates a minimal user row so invite fixtures have a valid
// invited_by foreign key.
func seedAdmin(t *testing.T, st *Store, companyID, email string) domain.User {
	t.Helper()

	u := domain.User{
		ID:        idx.New().String(),
		CompanyID: companyID,
		Email:     email,
		Role:      domain.RoleAdmin,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUserEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	company := seedCompany(t, st, "acme.com")

	u := domain.User{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "Alice@Acme.com",
		Role:      domain.RoleAdmin,
	}
	require.NoError(t, st.Users().CreateUser(ctx, u))

	got, err := st.Users().GetUserByEmail(ctx, "ALICE@ACME.COM")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "alice@acme.com", got.Email)

	// The unique index sees the same email regardless of case.
	dup := domain.User{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "alice@ACME.com",
		Role:      domain.RoleAdmin,
	}
	require.ErrorIs(t, st.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)
}

func TestPendingInviteUniquePerCompanyEmail(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	company := seedCompany(t, st, "acme.com")
	admin := seedAdmin(t, st, company.ID, "alice@acme.com")

	first := domain.Invite{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "bob@acme.com",
		Status:    domain.InvitePending,
		InvitedBy: admin.ID,
		Role:      domain.RoleStandard,
		InvitedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, first))

	second := first
	second.ID = idx.New().String()
	require.ErrorIs(t, st.Invites().CreateInvite(ctx, second), store.ErrAlreadyExists)

	// Once the first invite is accepted the slot opens again.
	require.NoError(t, st.Invites().MarkInviteAccepted(ctx, first.ID))
	require.NoError(t, st.Invites().CreateInvite(ctx, second))
}

func TestMarkInviteAcceptedIsTerminal(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	company := seedCompany(t, st, "acme.com")
	admin := seedAdmin(t, st, company.ID, "alice@acme.com")

	inv := domain.Invite{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "bob@acme.com",
		Status:    domain.InvitePending,
		InvitedBy: admin.ID,
		Role:      domain.RoleStandard,
		InvitedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))

	require.NoError(t, st.Invites().MarkInviteAccepted(ctx, inv.ID))

	got, err := st.Invites().GetInviteByID(ctx, company.ID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteAccepted, got.Status)
	require.NotNil(t, got.AcceptedAt)

	// Accepted rows never flip again.
	require.ErrorIs(t, st.Invites().MarkInviteAccepted(ctx, inv.ID), store.ErrNotFound)
}

func TestInviteLookupsAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	company := seedCompany(t, st, "acme.com")
	other := seedCompany(t, st, "other.com")
	admin := seedAdmin(t, st, company.ID, "alice@acme.com")

	inv := domain.Invite{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "bob@acme.com",
		Status:    domain.InvitePending,
		InvitedBy: admin.ID,
		Role:      domain.RoleStandard,
		InvitedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Invites().CreateInvite(ctx, inv))

	_, err := st.Invites().GetInviteByID(ctx, other.ID, inv.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, st.Invites().DeleteInvite(ctx, other.ID, inv.ID), store.ErrNotFound)
}

func TestResetTokenSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	now := time.Now().UTC()
	token := domain.ResetToken{
		ID:        idx.New().String(),
		TokenHash: "fingerprint-1",
		Email:     "alice@acme.com",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, st.ResetTokens().CreateResetToken(ctx, token))

	got, err := st.ResetTokens().GetResetTokenByHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.False(t, got.Used)

	require.NoError(t, st.ResetTokens().MarkResetTokenUsed(ctx, token.ID))

	// The second redemption loses.
	require.ErrorIs(t, st.ResetTokens().MarkResetTokenUsed(ctx, token.ID), store.ErrNotFound)

	got, err = st.ResetTokens().GetResetTokenByHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.True(t, got.Used)
	require.NotNil(t, got.UsedAt)
}

func TestHousekeepingSweeps(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	company := seedCompany(t, st, "acme.com")
	admin := seedAdmin(t, st, company.ID, "alice@acme.com")

	stale := domain.Invite{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "old@acme.com",
		Status:    domain.InvitePending,
		InvitedBy: admin.ID,
		Role:      domain.RoleStandard,
		InvitedAt: time.Now().UTC().Add(-60 * 24 * time.Hour),
	}
	fresh := stale
	fresh.ID = idx.New().String()
	fresh.Email = "new@acme.com"
	fresh.InvitedAt = time.Now().UTC()
	require.NoError(t, st.Invites().CreateInvite(ctx, stale))
	require.NoError(t, st.Invites().CreateInvite(ctx, fresh))

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	require.NoError(t, st.Invites().DeleteStalePendingInvites(ctx, cutoff))

	invites, err := st.Invites().ListCompanyInvites(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.Equal(t, fresh.ID, invites[0].ID)

	now := time.Now().UTC()
	expired := domain.ResetToken{
		ID:        idx.New().String(),
		TokenHash: "expired-hash",
		Email:     "alice@acme.com",
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	live := domain.ResetToken{
		ID:        idx.New().String(),
		TokenHash: "live-hash",
		Email:     "alice@acme.com",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, st.ResetTokens().CreateResetToken(ctx, expired))
	require.NoError(t, st.ResetTokens().CreateResetToken(ctx, live))

	require.NoError(t, st.ResetTokens().DeleteExpiredResetTokens(ctx))

	_, err = st.ResetTokens().GetResetTokenByHash(ctx, "expired-hash")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.ResetTokens().GetResetTokenByHash(ctx, "live-hash")
	require.NoError(t, err)
}

func TestUpdatesOnMissingRowsReturnNotFound(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	require.ErrorIs(t, st.Users().MarkEmailVerified(ctx, "missing"), store.ErrNotFound)
	require.ErrorIs(t, st.Users().DeleteUser(ctx, "missing"), store.ErrNotFound)
	require.ErrorIs(t, st.Invites().TouchInvitedAt(ctx, "missing"), store.ErrNotFound)
	require.ErrorIs(t, st.Companies().UpdateMaxUsers(ctx, "missing", 10), store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	company := seedCompany(t, st, "acme.com")

	sentinel := domain.User{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     "alice@acme.com",
		Role:      domain.RoleAdmin,
	}

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, sentinel); err != nil {
			return err
		}
		return context.Canceled // any error aborts
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.Users().GetUserByID(ctx, sentinel.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

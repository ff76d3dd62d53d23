package service

import (
	"context"
	"testing"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newInviteService(t *testing.T) (*InviteService, *captureSender) {
	t.Helper()

	st := newTestStore(t)
	signer, verifier := newTestSigner(t)
	mailer, sender := newTestMailer()

	return &InviteService{
		Store:    st,
		Mailer:   mailer,
		Signer:   signer,
		Verifier: verifier,
	}, sender
}

func TestCreateInvite(t *testing.T) {
	ctx := context.Background()
	svc, sender := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	invite, err := svc.Create(ctx, admin.ID, "Bob@Acme.com", domain.RoleStandard)
	require.NoError(t, err)
	require.Equal(t, "bob@acme.com", invite.Email)
	require.Equal(t, domain.InvitePending, invite.Status)
	require.Equal(t, domain.RoleStandard, invite.Role)
	require.Equal(t, admin.ID, invite.InvitedBy)

	require.Equal(t, 1, sender.count())
	require.Equal(t, "bob@acme.com", sender.last(t).To)
}

func TestCreateInviteRejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)
	member := seedUser(t, svc.Store, company.ID, "carol@acme.com", "password123", domain.RoleStandard, true)

	t.Run("non-admin cannot invite", func(t *testing.T) {
		_, err := svc.Create(ctx, member.ID, "bob@acme.com", domain.RoleStandard)
		require.ErrorIs(t, err, ErrNotAdmin)
	})

	t.Run("self invite", func(t *testing.T) {
		_, err := svc.Create(ctx, admin.ID, "alice@acme.com", domain.RoleStandard)
		require.ErrorIs(t, err, ErrSelfInvite)
	})

	t.Run("foreign domain", func(t *testing.T) {
		_, err := svc.Create(ctx, admin.ID, "bob@other.com", domain.RoleStandard)
		require.ErrorIs(t, err, ErrDomainMismatch)
	})

	t.Run("registered email", func(t *testing.T) {
		_, err := svc.Create(ctx, admin.ID, "carol@acme.com", domain.RoleStandard)
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.Role("owner"))
		require.ErrorIs(t, err, domain.ErrInvalidRole)
	})

	t.Run("duplicate pending invite", func(t *testing.T) {
		_, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
		require.NoError(t, err)

		_, err = svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
		require.ErrorIs(t, err, ErrInvitePending)
	})
}

func TestCreateInviteSeatLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	// Cap of 2: the verified admin plus one pending invite fills the company.
	company := seedCompany(t, svc.Store, "acme.com", 2)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin.ID, "carol@acme.com", domain.RoleStandard)
	require.ErrorIs(t, err, ErrSeatLimitReached)

	// Deleting the pending invite frees the seat again.
	invite, err := svc.Store.Invites().GetPendingInviteByEmail(ctx, company.ID, "bob@acme.com")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, admin.ID, invite.ID))

	_, err = svc.Create(ctx, admin.ID, "carol@acme.com", domain.RoleStandard)
	require.NoError(t, err)
}

func TestSeatInfo(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 3)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)
	member := seedUser(t, svc.Store, company.ID, "carol@acme.com", "password123", domain.RoleStandard, true)
	seedInvite(t, svc.Store, company.ID, "bob@acme.com", admin.ID, domain.RoleStandard)

	info, err := svc.Info(ctx, admin.ID)
	require.NoError(t, err)
	require.Equal(t, 2, info.ActiveUsers)
	require.Equal(t, 1, info.PendingInvites)
	require.Equal(t, 3, info.SeatCap)
	require.False(t, info.CanInvite) // full house

	// Non-admins never see CanInvite even with free seats.
	info, err = svc.Info(ctx, member.ID)
	require.NoError(t, err)
	require.False(t, info.CanInvite)
}

func TestAcceptInvite(t *testing.T) {
	ctx := context.Background()
	svc, sender := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	invite, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
	require.NoError(t, err)
	token := tokenFromMail(t, sender.last(t).Body)

	user, err := svc.Accept(ctx, token, "password123", "password123")
	require.NoError(t, err)
	require.Equal(t, "bob@acme.com", user.Email)
	require.Equal(t, domain.RoleStandard, user.Role)
	require.True(t, user.EmailVerified)
	require.Equal(t, company.ID, user.CompanyID)

	// The invite row flipped to accepted.
	stored, err := svc.Store.Invites().GetInviteByID(ctx, company.ID, invite.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteAccepted, stored.Status)
	require.NotNil(t, stored.AcceptedAt)

	// The inviter got the acceptance notification.
	require.Equal(t, 2, sender.count())
	require.Equal(t, "alice@acme.com", sender.last(t).To)

	// Accepting the same link again is an idempotent success.
	again, err := svc.Accept(ctx, token, "password123", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
}

func TestAcceptInviteWithoutRowNotifiesTokenInviter(t *testing.T) {
	ctx := context.Background()
	svc, sender := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	invite, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
	require.NoError(t, err)
	token := tokenFromMail(t, sender.last(t).Body)

	// The row is deleted before the link is redeemed; the token alone still
	// carries the inviter, role and tenant.
	require.NoError(t, svc.Delete(ctx, admin.ID, invite.ID))

	user, err := svc.Accept(ctx, token, "password123", "password123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleStandard, user.Role)

	require.Equal(t, 2, sender.count())
	require.Equal(t, "alice@acme.com", sender.last(t).To)
}

func TestAcceptInviteValidation(t *testing.T) {
	ctx := context.Background()
	svc, sender := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
	require.NoError(t, err)
	token := tokenFromMail(t, sender.last(t).Body)

	t.Run("weak password", func(t *testing.T) {
		_, err := svc.Accept(ctx, token, "short", "short")
		require.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("password mismatch", func(t *testing.T) {
		_, err := svc.Accept(ctx, token, "password123", "password456")
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Accept(ctx, "garbage", "password123", "password123")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := svc.Signer.Sign(jwtx.NewClaims(
			jwtx.KindInvite, admin.ID, company.ID, "bob@acme.com", string(domain.RoleStandard),
			testIssuer, jwtx.InviteTokenTTL, time.Now().UTC().Add(-48*time.Hour),
		))
		require.NoError(t, err)

		_, err = svc.Accept(ctx, expired, "password123", "password123")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAcceptInviteRechecksSeats(t *testing.T) {
	ctx := context.Background()
	svc, sender := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 2)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	_, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
	require.NoError(t, err)
	token := tokenFromMail(t, sender.last(t).Body)

	// Seats fill up behind the invite's back.
	seedUser(t, svc.Store, company.ID, "carol@acme.com", "password123", domain.RoleStandard, true)

	_, err = svc.Accept(ctx, token, "password123", "password123")
	require.ErrorIs(t, err, ErrSeatLimitReached)
}

func TestResendInvite(t *testing.T) {
	ctx := context.Background()
	svc, sender := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)
	member := seedUser(t, svc.Store, company.ID, "carol@acme.com", "password123", domain.RoleStandard, true)

	invite, err := svc.Create(ctx, admin.ID, "bob@acme.com", domain.RoleStandard)
	require.NoError(t, err)
	require.Equal(t, 1, sender.count())

	t.Run("resend dispatches a fresh mail", func(t *testing.T) {
		require.NoError(t, svc.Resend(ctx, admin.ID, invite.ID))
		require.Equal(t, 2, sender.count())
	})

	t.Run("non-admin cannot resend", func(t *testing.T) {
		require.ErrorIs(t, svc.Resend(ctx, member.ID, invite.ID), ErrNotAdmin)
	})

	t.Run("unknown invite", func(t *testing.T) {
		require.ErrorIs(t, svc.Resend(ctx, admin.ID, "missing"), ErrInviteNotFound)
	})

	t.Run("accepted invite cannot be resent", func(t *testing.T) {
		require.NoError(t, svc.Store.Invites().MarkInviteAccepted(ctx, invite.ID))
		require.ErrorIs(t, svc.Resend(ctx, admin.ID, invite.ID), ErrInviteAlreadyAccepted)
	})
}

func TestDeleteInvite(t *testing.T) {
	ctx := context.Background()
	svc, _ := newInviteService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	admin := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)
	member := seedUser(t, svc.Store, company.ID, "carol@acme.com", "password123", domain.RoleStandard, true)
	invite := seedInvite(t, svc.Store, company.ID, "bob@acme.com", admin.ID, domain.RoleStandard)

	require.ErrorIs(t, svc.Delete(ctx, member.ID, invite.ID), ErrNotAdmin)
	require.NoError(t, svc.Delete(ctx, admin.ID, invite.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin.ID, invite.ID), ErrInviteNotFound)
}

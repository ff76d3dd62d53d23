package service

import (
	"context"
	"testing"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newSessionService(t *testing.T) (*SessionService, *captureSender) {
	t.Helper()

	st := newTestStore(t)
	signer, verifier := newTestSigner(t)
	mailer, sender := newTestMailer()

	return &SessionService{
		Store:    st,
		Mailer:   mailer,
		Signer:   signer,
		Verifier: verifier,
	}, sender
}

func TestSignInSuccess(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSessionService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	alice := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	user, token, err := svc.SignIn(ctx, "Alice@Acme.com", "password123")
	require.NoError(t, err)
	require.Equal(t, alice.ID, user.ID)
	require.NotEmpty(t, token)

	// The minted token opens a session for the same user.
	verified, err := svc.VerifySession(ctx, token)
	require.NoError(t, err)
	require.Equal(t, alice.ID, verified.ID)

	// Last login was recorded.
	stored, err := svc.Store.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
}

func TestSignInFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSessionService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)
	seedUser(t, svc.Store, company.ID, "bob@acme.com", "password123", domain.RoleStandard, false)

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "alice@acme.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is the same failure", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "nobody@acme.com", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("malformed email is the same failure", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "not-an-email", "password123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unverified account is distinct", func(t *testing.T) {
		_, _, err := svc.SignIn(ctx, "bob@acme.com", "password123")
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})
}

func TestVerifySessionRejectsStaleToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSessionService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	alice := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	// Token minted two hours ago, well before the password change below.
	stale, err := svc.Signer.Sign(jwtx.NewClaims(
		jwtx.KindSession, alice.ID, alice.CompanyID, alice.Email, string(alice.Role),
		testIssuer, jwtx.SessionTokenTTL, time.Now().UTC().Add(-2*time.Hour),
	))
	require.NoError(t, err)

	_, err = svc.VerifySession(ctx, stale)
	require.NoError(t, err)

	require.NoError(t, svc.Store.Users().UpdatePasswordHash(ctx, alice.ID, alice.PasswordHash))

	_, err = svc.VerifySession(ctx, stale)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestVerifySessionRejectsOtherTokenKinds(t *testing.T) {
	ctx := context.Background()
	svc, _ := newSessionService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	alice := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	confirm, err := svc.Signer.Sign(jwtx.NewClaims(
		jwtx.KindConfirm, alice.ID, alice.CompanyID, alice.Email, string(alice.Role),
		testIssuer, jwtx.ConfirmTokenTTL, time.Now().UTC(),
	))
	require.NoError(t, err)

	_, err = svc.VerifySession(ctx, confirm)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequestMagicLink(t *testing.T) {
	ctx := context.Background()
	svc, sender := newSessionService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)
	seedUser(t, svc.Store, company.ID, "bob@acme.com", "password123", domain.RoleStandard, false)

	t.Run("unknown email is silently skipped", func(t *testing.T) {
		require.NoError(t, svc.RequestMagicLink(ctx, "nobody@acme.com"))
		require.Equal(t, 0, sender.count())
	})

	t.Run("unverified account is silently skipped", func(t *testing.T) {
		require.NoError(t, svc.RequestMagicLink(ctx, "bob@acme.com"))
		require.Equal(t, 0, sender.count())
	})

	t.Run("verified account gets the link", func(t *testing.T) {
		require.NoError(t, svc.RequestMagicLink(ctx, "alice@acme.com"))
		require.Equal(t, 1, sender.count())
		require.Equal(t, "alice@acme.com", sender.last(t).To)
	})
}

func TestRedeemMagicLink(t *testing.T) {
	ctx := context.Background()
	svc, sender := newSessionService(t)

	company := seedCompany(t, svc.Store, "acme.com", 5)
	alice := seedUser(t, svc.Store, company.ID, "alice@acme.com", "password123", domain.RoleAdmin, true)

	require.NoError(t, svc.RequestMagicLink(ctx, "alice@acme.com"))
	token := tokenFromMail(t, sender.last(t).Body)

	user, sessionToken, err := svc.RedeemMagicLink(ctx, token)
	require.NoError(t, err)
	require.Equal(t, alice.ID, user.ID)

	verified, err := svc.VerifySession(ctx, sessionToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, verified.ID)

	// A magic token is not a session token.
	_, err = svc.VerifySession(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

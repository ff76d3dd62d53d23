package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/mail"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/pkg/cryptox"
	"github.com/onevision/baselogin/pkg/jwtx"
	"github.com/onevision/baselogin/pkg/slogx"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike so
	// callers can't probe which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrEmailNotVerified = errors.New("email not verified")

	// ErrSessionRevoked rejects session tokens minted before the user's last
	// password change.
	ErrSessionRevoked = errors.New("session revoked")
)

// SessionService handles sign-in, session verification and magic links.
type SessionService struct {
	Store    store.Store
	Mailer   *mail.Mailer
	Signer   *jwtx.Signer
	Verifier *jwtx.Verifier
}

// SignIn checks the credentials and mints a session token.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	// 1. Normalize. A malformed email can't match anyone, so it's the same
	// generic failure as a wrong password.
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, "", ErrInvalidCredentials
	}

	// 2. Look up the account.
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, "", err
	}

	// 3. Check the password before revealing anything about the account.
	if user.PasswordHash == "" {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("sign-in failed", slog.String("user_id", user.ID))
		return domain.User{}, "", ErrInvalidCredentials
	}

	// 4. Unverified accounts can't sign in; surfaced distinctly (403) so the
	// UI can offer to resend the confirmation.
	if !user.EmailVerified {
		return domain.User{}, "", ErrEmailNotVerified
	}

	// 5. Mint the session and record the login.
	token, err := s.mintSession(user)
	if err != nil {
		log.Error("failed to mint session token", slog.Any("error", err))
		return domain.User{}, "", err
	}

	if err := s.Store.Users().TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to record last login", slog.Any("error", err))
	}

	log.Info("user signed in", slog.String("user_id", user.ID))
	return user, token, nil
}

// VerifySession validates a session token and loads its user. Tokens issued
// before the user's last password change are rejected even if unexpired.
func (s *SessionService) VerifySession(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.Verifier.VerifyKind(token, jwtx.KindSession)
	if err != nil {
		return domain.User{}, ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}

	if user.PasswordUpdatedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(*user.PasswordUpdatedAt) {
		return domain.User{}, ErrSessionRevoked
	}

	return user, nil
}

// RequestMagicLink emails a passwordless sign-in link. Unknown and
// unverified emails are silently skipped so the endpoint can't be used to
// enumerate accounts.
func (s *SessionService) RequestMagicLink(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	email, err := normalizeEmail(email)
	if err != nil {
		return nil
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("magic link requested for unknown email")
			return nil
		}
		return err
	}
	if !user.EmailVerified {
		log.Debug("magic link requested for unverified account",
			slog.String("user_id", user.ID))
		return nil
	}

	token, err := s.Signer.Sign(jwtx.NewClaims(
		jwtx.KindMagic, user.ID, user.CompanyID, user.Email, string(user.Role),
		s.Signer.Issuer(), jwtx.MagicLinkTTL, time.Now().UTC(),
	))
	if err != nil {
		log.Error("failed to mint magic link token", slog.Any("error", err))
		return err
	}

	if err := s.Mailer.SendMagicLink(ctx, user.Email, token); err != nil {
		log.Error("failed to send magic link", slog.Any("error", err))
		return err
	}

	log.Info("magic link sent", slog.String("user_id", user.ID))
	return nil
}

// RedeemMagicLink exchanges a magic-link token for a session.
func (s *SessionService) RedeemMagicLink(ctx context.Context, token string) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	claims, err := s.Verifier.VerifyKind(token, jwtx.KindMagic)
	if err != nil {
		log.Warn("magic link redemption failed", slog.Any("error", err))
		return domain.User{}, "", ErrInvalidToken
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, "", ErrInvalidToken
		}
		return domain.User{}, "", err
	}

	sessionToken, err := s.mintSession(user)
	if err != nil {
		log.Error("failed to mint session token", slog.Any("error", err))
		return domain.User{}, "", err
	}

	if err := s.Store.Users().TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn("failed to record last login", slog.Any("error", err))
	}

	log.Info("user signed in via magic link", slog.String("user_id", user.ID))
	return user, sessionToken, nil
}

func (s *SessionService) mintSession(user domain.User) (string, error) {
	return s.Signer.Sign(jwtx.NewClaims(
		jwtx.KindSession, user.ID, user.CompanyID, user.Email, string(user.Role),
		s.Signer.Issuer(), jwtx.SessionTokenTTL, time.Now().UTC(),
	))
}

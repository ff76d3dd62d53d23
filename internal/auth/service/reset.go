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
	"github.com/onevision/baselogin/pkg/idx"
	"github.com/onevision/baselogin/pkg/slogx"
)

// ResetTokenTTL is how long a password-reset link stays redeemable.
const ResetTokenTTL = 60 * time.Minute

var (
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	ErrResetDisabled     = errors.New("password reset is disabled")
)

// ResetService implements the password-reset flow with single-use hashed
// tokens stored separately from the signed session tokens.
type ResetService struct {
	Store  store.Store
	Mailer *mail.Mailer

	// Enabled gates the whole flow; when false both operations refuse.
	Enabled bool
}

// Request issues a reset token and emails it. All outcomes for the caller
// are identical: unknown emails, unverified accounts and dispatch failures
// return nil so the endpoint can't be used to enumerate accounts. Only
// internal storage failures surface.
func (s *ResetService) Request(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	if !s.Enabled {
		return ErrResetDisabled
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("reset requested for unknown email")
			return nil
		}
		return err
	}

	// 1. Generate the raw token; only its fingerprint is persisted.
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate reset token", slog.Any("error", err))
		return err
	}

	now := time.Now().UTC()
	token := domain.ResetToken{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(raw),
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(ResetTokenTTL),
	}
	if err := s.Store.ResetTokens().CreateResetToken(ctx, token); err != nil {
		log.Error("failed to store reset token", slog.Any("error", err))
		return err
	}

	// 2. Dispatch failures are logged, never surfaced.
	if err := s.Mailer.SendPasswordReset(ctx, user.Email, raw); err != nil {
		log.Error("failed to send reset email",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	log.Info("password reset requested", slog.String("user_id", user.ID))
	return nil
}

// Confirm redeems a reset token and sets the new password. The token is
// single-use, and redeeming it invalidates every other outstanding token
// for the same email. Stamping passwordUpdatedAt revokes all session tokens
// minted before now.
func (s *ResetService) Confirm(ctx context.Context, rawToken, newPassword string) error {
	log := slogx.FromContext(ctx)

	if !s.Enabled {
		return ErrResetDisabled
	}

	// 1. Validate the new password before touching any state.
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	// 2. Look the token up by fingerprint.
	token, err := s.Store.ResetTokens().GetResetTokenByHash(ctx, cryptox.FingerprintToken(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if !token.Usable(time.Now().UTC()) {
		return ErrResetTokenInvalid
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, token.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	passwordHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	// 3. Burn the token, sweep its siblings and swap the hash atomically.
	// MarkResetTokenUsed only flips unused rows, so a concurrent double
	// redemption loses with ErrNotFound.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetTokens().MarkResetTokenUsed(ctx, token.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrResetTokenInvalid
			}
			return err
		}
		if err := tx.ResetTokens().InvalidateResetTokensForEmail(ctx, token.Email); err != nil {
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, user.ID, passwordHash)
	})
	if err != nil {
		return err
	}

	log.Info("password reset completed", slog.String("user_id", user.ID))
	return nil
}

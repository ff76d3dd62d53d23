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
	"github.com/onevision/baselogin/pkg/jwtx"
	"github.com/onevision/baselogin/pkg/slogx"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AccountService handles sign-up, email confirmation and account lookups.
type AccountService struct {
	Store    store.Store
	Mailer   *mail.Mailer
	Signer   *jwtx.Signer
	Verifier *jwtx.Verifier

	// DefaultSeats is the seat cap for companies created before the global
	// settings row exists.
	DefaultSeats int
}

// SignUp registers a new account. The company is created lazily from the
// email's domain part, and the new user is always an admin of it; regular
// members only ever arrive through invites.
func (s *AccountService) SignUp(ctx context.Context, email, password, orgName string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}

	// 2. Reject duplicate registrations up front for a clean error. The
	// unique index on users.email closes the race below.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check email availability", slog.Any("error", err))
		return domain.User{}, err
	}

	// 3. Hash the password before entering the transaction.
	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	// 4. Create company (if this is the first account for the domain) and
	// user atomically.
	emailDom := emailDomain(email)
	var user domain.User
	var company domain.Company
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		company, err = tx.Companies().GetCompanyByDomain(ctx, emailDom)
		if errors.Is(err, store.ErrNotFound) {
			name := orgName
			if name == "" {
				name = emailDom
			}
			company = domain.Company{
				ID:       idx.New().String(),
				Name:     name,
				Domain:   emailDom,
				MaxUsers: s.defaultSeatCap(ctx, tx),
			}
			if err := tx.Companies().CreateCompany(ctx, company); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		user = domain.User{
			ID:            idx.New().String(),
			CompanyID:     company.ID,
			Email:         email,
			PasswordHash:  passwordHash,
			EmailVerified: false,
			Role:          domain.RoleAdmin,
		}
		return tx.Users().CreateUser(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		log.Error("failed to create account", slog.Any("error", err))
		return domain.User{}, err
	}

	// 5. Mint the confirmation token and send it. Dispatch failure does not
	// fail the sign-up: the account exists and the mail can be re-requested.
	token, err := s.Signer.Sign(jwtx.NewClaims(
		jwtx.KindConfirm, user.ID, company.ID, user.Email, string(user.Role),
		s.Signer.Issuer(), jwtx.ConfirmTokenTTL, time.Now().UTC(),
	))
	if err != nil {
		log.Error("failed to mint confirmation token", slog.Any("error", err))
	} else if err := s.Mailer.SendConfirmation(ctx, user.Email, company.Name, token); err != nil {
		log.Error("failed to send confirmation email",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	log.Info("account created",
		slog.String("user_id", user.ID),
		slog.String("company_id", company.ID),
	)

	return user, nil
}

// Confirm redeems an email-confirmation token. Confirming an already
// verified account is an idempotent success; alreadyVerified tells the
// caller which case happened.
func (s *AccountService) Confirm(ctx context.Context, token string) (user domain.User, alreadyVerified bool, err error) {
	log := slogx.FromContext(ctx)

	// 1. Verify the token and its kind.
	claims, err := s.Verifier.VerifyKind(token, jwtx.KindConfirm)
	if err != nil {
		log.Warn("confirmation attempted with bad token", slog.Any("error", err))
		return domain.User{}, false, ErrInvalidToken
	}

	// 2. Look up the user from the token, never from client input.
	user, err = s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, false, ErrUserNotFound
		}
		return domain.User{}, false, err
	}

	// 3. Idempotent short-circuit.
	if user.EmailVerified {
		return user, true, nil
	}

	// 4. Flip the flag.
	if err := s.Store.Users().MarkEmailVerified(ctx, user.ID); err != nil {
		log.Error("failed to mark email verified", slog.Any("error", err))
		return domain.User{}, false, err
	}
	user.EmailVerified = true

	log.Info("email confirmed", slog.String("user_id", user.ID))
	return user, false, nil
}

// UserExists reports whether an account exists for the email.
func (s *AccountService) UserExists(ctx context.Context, email string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}

	_, err = s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// defaultSeatCap resolves the seat cap for a newly created company from the
// global settings row, falling back to the configured default.
func (s *AccountService) defaultSeatCap(ctx context.Context, tx store.Tx) int {
	settings, err := tx.Settings().GetSettings(ctx)
	if err != nil {
		return s.DefaultSeats
	}
	return settings.DefaultMaxUsers
}

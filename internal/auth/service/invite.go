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
	ErrNotAdmin              = errors.New("requires admin role")
	ErrSeatLimitReached      = errors.New("seat limit reached")
	ErrDomainMismatch        = errors.New("invitee domain does not match company domain")
	ErrSelfInvite            = errors.New("cannot invite yourself")
	ErrInvitePending         = errors.New("a pending invite already exists for this email")
	ErrInviteNotFound        = errors.New("invite not found")
	ErrInviteAlreadyAccepted = errors.New("invite has already been accepted")
	ErrPasswordMismatch      = errors.New("passwords do not match")
)

// InviteService manages the team-invite lifecycle: create, resend, accept
// and delete.
type InviteService struct {
	Store    store.Store
	Mailer   *mail.Mailer
	Signer   *jwtx.Signer
	Verifier *jwtx.Verifier
}

// Info returns seat occupancy for the requester's company.
func (s *InviteService) Info(ctx context.Context, requesterID string) (SeatInfo, error) {
	requester, company, err := s.loadRequester(ctx, requesterID)
	if err != nil {
		return SeatInfo{}, err
	}
	return seatInfo(ctx, s.Store, company, requester.Role == domain.RoleAdmin)
}

// Create issues a new invite. The invitee's domain must match the company
// domain, the email must not belong to an existing account, and a seat must
// be free. The duplicate-pending check runs inside the transaction where the
// partial unique index makes it race-safe.
func (s *InviteService) Create(ctx context.Context, requesterID, email string, role domain.Role) (domain.Invite, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input.
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.Invite{}, err
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return domain.Invite{}, err
	}

	// 2. Load the requester and their company; only admins invite.
	requester, company, err := s.loadRequester(ctx, requesterID)
	if err != nil {
		return domain.Invite{}, err
	}
	if requester.Role != domain.RoleAdmin {
		return domain.Invite{}, ErrNotAdmin
	}

	// 3. Invites never cross tenant domains, and never target the inviter.
	if email == requester.Email {
		return domain.Invite{}, ErrSelfInvite
	}
	if emailDomain(email) != company.Domain {
		log.Warn("invite rejected for foreign domain",
			slog.String("company_id", company.ID),
			slog.String("invitee_domain", emailDomain(email)),
		)
		return domain.Invite{}, ErrDomainMismatch
	}

	// 4. Registered emails can't be invited again.
	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.Invite{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Invite{}, err
	}

	// 5. Check-then-create inside a transaction. The pending-invite unique
	// index turns a concurrent duplicate into ErrAlreadyExists.
	invite := domain.Invite{
		ID:        idx.New().String(),
		CompanyID: company.ID,
		Email:     email,
		Status:    domain.InvitePending,
		InvitedBy: requester.ID,
		Role:      role,
		InvitedAt: time.Now().UTC(),
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Invites().GetPendingInviteByEmail(ctx, company.ID, email); err == nil {
			return ErrInvitePending
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		ok, err := seatAvailable(ctx, tx, company)
		if err != nil {
			return err
		}
		if !ok {
			return ErrSeatLimitReached
		}

		return tx.Invites().CreateInvite(ctx, invite)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Invite{}, ErrInvitePending
		}
		return domain.Invite{}, err
	}

	// 6. Mint the token and dispatch the email. Failure here does not roll
	// back the invite; the admin can resend.
	if err := s.sendInviteMail(ctx, invite, company, requester.Email); err != nil {
		log.Error("failed to send invite email",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
	}

	log.Info("invite created",
		slog.String("invite_id", invite.ID),
		slog.String("company_id", company.ID),
		slog.String("role", string(role)),
	)
	return invite, nil
}

// Resend refreshes a pending invite: bumps invitedAt on the same row and
// re-dispatches the email with a fresh 24-hour token.
func (s *InviteService) Resend(ctx context.Context, requesterID, inviteID string) error {
	log := slogx.FromContext(ctx)

	requester, company, err := s.loadRequester(ctx, requesterID)
	if err != nil {
		return err
	}
	if requester.Role != domain.RoleAdmin {
		return ErrNotAdmin
	}

	// Resending still occupies a seat, so the requester must currently be
	// able to invite.
	ok, err := seatAvailableForResend(ctx, s.Store, company)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSeatLimitReached
	}

	invite, err := s.Store.Invites().GetInviteByID(ctx, company.ID, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	if invite.Status == domain.InviteAccepted {
		return ErrInviteAlreadyAccepted
	}

	if err := s.Store.Invites().TouchInvitedAt(ctx, invite.ID); err != nil {
		return err
	}

	if err := s.sendInviteMail(ctx, invite, company, requester.Email); err != nil {
		log.Error("failed to resend invite email",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invite resent", slog.String("invite_id", invite.ID))
	return nil
}

// Accept redeems an invite token and creates the member account. The email
// always comes from the verified token claims, never from client input. If
// an account already exists for that email the call is an idempotent
// success: the invite is marked accepted and no duplicate user is created.
func (s *InviteService) Accept(ctx context.Context, token, password, confirm string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate the password before touching any state.
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}
	if password != confirm {
		return domain.User{}, ErrPasswordMismatch
	}

	// 2. Verify the token.
	claims, err := s.Verifier.VerifyKind(token, jwtx.KindInvite)
	if err != nil {
		log.Warn("invite acceptance with bad token", slog.Any("error", err))
		return domain.User{}, ErrInvalidToken
	}
	email := claims.Email
	companyID := claims.CompanyID

	// 3. Idempotent path: the account already exists.
	if existing, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		if invite, err := s.Store.Invites().GetPendingInviteByEmail(ctx, companyID, email); err == nil {
			if err := s.Store.Invites().MarkInviteAccepted(ctx, invite.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return domain.User{}, err
			}
		}
		log.Info("invite accepted for existing account", slog.String("user_id", existing.ID))
		return existing, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidToken
		}
		return domain.User{}, err
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	// 4. Role comes from the persisted invite, falling back to the token's
	// role claim if the row has gone missing.
	var user domain.User
	invitedBy := claims.Subject
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		role := domain.Role(claims.Role)
		inviteID := ""
		if invite, err := tx.Invites().GetPendingInviteByEmail(ctx, companyID, email); err == nil {
			role = invite.Role
			inviteID = invite.ID
			invitedBy = invite.InvitedBy
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := domain.ParseRole(string(role)); err != nil {
			return ErrInvalidToken
		}

		// Seats may have filled since the invite was sent. A surviving
		// pending row already holds its seat; without one the new account
		// needs a free seat of its own.
		info, err := seatInfo(ctx, tx, company, true)
		if err != nil {
			return err
		}
		occupied := info.ActiveUsers + info.PendingInvites
		if (inviteID != "" && occupied > company.MaxUsers) ||
			(inviteID == "" && occupied >= company.MaxUsers) {
			return ErrSeatLimitReached
		}

		user = domain.User{
			ID:            idx.New().String(),
			CompanyID:     companyID,
			Email:         email,
			PasswordHash:  passwordHash,
			EmailVerified: true, // the invite link proves mailbox ownership
			Role:          role,
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}

		if inviteID != "" {
			if err := tx.Invites().MarkInviteAccepted(ctx, inviteID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	// 5. Tell the inviter their invite landed. Failure here never fails the
	// acceptance.
	if inviter, err := s.Store.Users().GetUserByID(ctx, invitedBy); err == nil {
		if err := s.Mailer.SendInviteAccepted(ctx, inviter.Email, user.Email, company.Name); err != nil {
			log.Warn("failed to send acceptance notification",
				slog.String("invite_email", user.Email),
				slog.Any("error", err),
			)
		}
	}

	log.Info("invite accepted",
		slog.String("user_id", user.ID),
		slog.String("company_id", companyID),
	)
	return user, nil
}

// Delete removes an invite row regardless of status. Deleting an accepted
// invite is just record cleanup.
func (s *InviteService) Delete(ctx context.Context, requesterID, inviteID string) error {
	requester, company, err := s.loadRequester(ctx, requesterID)
	if err != nil {
		return err
	}
	if requester.Role != domain.RoleAdmin {
		return ErrNotAdmin
	}

	if err := s.Store.Invites().DeleteInvite(ctx, company.ID, inviteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("invite deleted",
		slog.String("invite_id", inviteID),
		slog.String("company_id", company.ID),
	)
	return nil
}

func (s *InviteService) loadRequester(ctx context.Context, requesterID string) (domain.User, domain.Company, error) {
	requester, err := s.Store.Users().GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.Company{}, ErrUserNotFound
		}
		return domain.User{}, domain.Company{}, err
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, requester.CompanyID)
	if err != nil {
		return domain.User{}, domain.Company{}, err
	}
	return requester, company, nil
}

func (s *InviteService) sendInviteMail(ctx context.Context, invite domain.Invite, company domain.Company, inviterEmail string) error {
	token, err := s.Signer.Sign(jwtx.NewClaims(
		jwtx.KindInvite, invite.InvitedBy, company.ID, invite.Email, string(invite.Role),
		s.Signer.Issuer(), jwtx.InviteTokenTTL, time.Now().UTC(),
	))
	if err != nil {
		return err
	}
	return s.Mailer.SendInvite(ctx, invite.Email, company.Name, inviterEmail, token)
}

// seatAvailableForResend checks occupancy without counting the invite being
// resent twice: the pending row already holds its seat, so occupancy at or
// under the cap is fine.
func seatAvailableForResend(ctx context.Context, s store.Store, company domain.Company) (bool, error) {
	info, err := seatInfo(ctx, s, company, true)
	if err != nil {
		return false, err
	}
	return info.ActiveUsers+info.PendingInvites <= company.MaxUsers, nil
}

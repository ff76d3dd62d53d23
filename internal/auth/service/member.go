package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/pkg/slogx"
)

var (
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	ErrLastAdmin        = errors.New("cannot delete the last admin")
	ErrWrongCompany     = errors.New("user belongs to a different company")
)

// MemberService lists and removes company members.
type MemberService struct {
	Store store.Store
}

// MemberList is the roster view for a company: its users, outstanding
// invites, and seat occupancy.
type MemberList struct {
	Users   []domain.User
	Invites []domain.Invite
	Seats   SeatInfo
}

// List returns the requester's company roster.
func (s *MemberService) List(ctx context.Context, requesterID string) (MemberList, error) {
	requester, err := s.Store.Users().GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return MemberList{}, ErrUserNotFound
		}
		return MemberList{}, err
	}

	company, err := s.Store.Companies().GetCompanyByID(ctx, requester.CompanyID)
	if err != nil {
		return MemberList{}, err
	}

	users, err := s.Store.Users().ListCompanyUsers(ctx, company.ID)
	if err != nil {
		return MemberList{}, err
	}

	invites, err := s.Store.Invites().ListCompanyInvites(ctx, company.ID)
	if err != nil {
		return MemberList{}, err
	}

	seats, err := seatInfo(ctx, s.Store, company, requester.Role == domain.RoleAdmin)
	if err != nil {
		return MemberList{}, err
	}

	return MemberList{Users: users, Invites: invites, Seats: seats}, nil
}

// Delete removes a member from the requester's company and cascades to any
// invite rows for that email. Admins cannot delete themselves through this
// path, and the last admin of a company can never be removed.
func (s *MemberService) Delete(ctx context.Context, requesterID, targetID string) error {
	log := slogx.FromContext(ctx)

	// 1. Load the requester; only admins manage members.
	requester, err := s.Store.Users().GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if requester.Role != domain.RoleAdmin {
		return ErrNotAdmin
	}

	// 2. Self-deletion goes through account closure, not member management.
	if targetID == requesterID {
		return ErrCannotDeleteSelf
	}

	// 3. Load the target and keep the operation tenant-scoped.
	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if target.CompanyID != requester.CompanyID {
		return ErrWrongCompany
	}

	// 4. Delete inside a transaction so the last-admin count can't race a
	// concurrent delete of another admin.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if target.Role == domain.RoleAdmin {
			admins, err := tx.Users().CountAdmins(ctx, target.CompanyID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		if err := tx.Users().DeleteUser(ctx, target.ID); err != nil {
			return err
		}
		return tx.Invites().DeleteInvitesByEmail(ctx, target.CompanyID, target.Email)
	})
	if err != nil {
		return err
	}

	log.Info("member deleted",
		slog.String("user_id", target.ID),
		slog.String("company_id", target.CompanyID),
		slog.String("deleted_by", requester.ID),
	)
	return nil
}

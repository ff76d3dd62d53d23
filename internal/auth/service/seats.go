package service

import (
	"context"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/store"
)

// SeatInfo reports seat occupancy for a company. A seat is occupied by an
// email-verified member or by a pending invite, so a cap of N admits at most
// N of them combined.
type SeatInfo struct {
	ActiveUsers    int  `json:"active_users"`
	PendingInvites int  `json:"pending_invites"`
	SeatCap        int  `json:"seat_cap"`
	CanInvite      bool `json:"can_invite"`
}

// seatInfo computes occupancy against the company cap. CanInvite is only
// true when the requester is an admin and a free seat remains.
func seatInfo(ctx context.Context, s store.Store, company domain.Company, isAdmin bool) (SeatInfo, error) {
	active, err := s.Users().CountVerifiedUsers(ctx, company.ID)
	if err != nil {
		return SeatInfo{}, err
	}

	pending, err := s.Invites().CountPendingInvites(ctx, company.ID)
	if err != nil {
		return SeatInfo{}, err
	}

	info := SeatInfo{
		ActiveUsers:    active,
		PendingInvites: pending,
		SeatCap:        company.MaxUsers,
		CanInvite:      isAdmin && active+pending < company.MaxUsers,
	}
	return info, nil
}

// seatAvailable reports whether one more seat can be taken.
func seatAvailable(ctx context.Context, s store.Store, company domain.Company) (bool, error) {
	info, err := seatInfo(ctx, s, company, true)
	if err != nil {
		return false, err
	}
	return info.CanInvite, nil
}

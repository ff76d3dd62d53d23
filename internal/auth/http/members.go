package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type MemberHandler struct {
	Members *service.MemberService
}

type MemberListResponse struct {
	Users   []UserResponse   `json:"users"`
	Invites []InviteResponse `json:"invites"`
	Seats   service.SeatInfo `json:"seats"`
}

// HandleList godoc
//
//	@Summary		Member List Endpoint
//	@Description	List the requester's company roster: users, invites and seat occupancy. Visible to every member of the company.
//	@Tags			Members
//	@Produce		json
//	@Success		200	{object}	MemberListResponse	"users, invites, seats"
//	@Failure		401	{object}	ErrorResponse		"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/members [get].
func (h *MemberHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requesterID := httpx.UserIDFromContext(ctx)
	if requesterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	list, err := h.Members.List(ctx, requesterID)
	if err != nil {
		log.Error("member listing failed", "err", err)
		writeServerError(w)
		return
	}

	resp := MemberListResponse{
		Users:   make([]UserResponse, 0, len(list.Users)),
		Invites: make([]InviteResponse, 0, len(list.Invites)),
		Seats:   list.Seats,
	}
	for _, u := range list.Users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	for _, inv := range list.Invites {
		resp.Invites = append(resp.Invites, toInviteResponse(inv))
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

type DeleteMemberRequest struct {
	UserID string `json:"user_id"`
}

// HandleDelete godoc
//
//	@Summary		Delete Member Endpoint
//	@Description	Remove a user from the requester's company, along with any invite rows for their email. Admins cannot delete themselves, and the last admin of a company cannot be removed.
//	@Tags			Members
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DeleteMemberRequest	true	"Delete request"
//	@Success		200		{object}	MessageResponse		"message"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		403		{object}	ErrorResponse		"error, error_description"
//	@Failure		404		{object}	ErrorResponse		"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/members/delete [post].
func (h *MemberHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requesterID := httpx.UserIDFromContext(ctx)
	if requesterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req DeleteMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	if err := h.Members.Delete(ctx, requesterID, req.UserID); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotDeleteSelf):
			writeError(w, http.StatusBadRequest, "invalid_request", "You cannot delete your own account")
		case errors.Is(err, service.ErrLastAdmin):
			writeError(w, http.StatusBadRequest, "last_admin", "A company must keep at least one admin")
		case errors.Is(err, service.ErrNotAdmin):
			writeError(w, http.StatusForbidden, "forbidden", "Only admins can delete members")
		// Cross-tenant targets are reported as not found rather than
		// revealing that the user exists elsewhere.
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrWrongCompany):
			writeError(w, http.StatusNotFound, "not_found", "User not found")
		default:
			log.Error("member deletion failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "User deleted"})
}

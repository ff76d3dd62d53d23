package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type InviteHandler struct {
	Invites *service.InviteService
}

type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type CreateInviteResponse struct {
	Invite InviteResponse  `json:"invite"`
	Seats  service.SeatInfo `json:"seats"`
}

// HandleCreate godoc
//
//	@Summary		Create Invite Endpoint
//	@Description	Invite a teammate by email. The invitee's domain must match the company domain, the email must not already have an account, and a seat must be free.
//	@Tags			Invites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateInviteRequest		true	"Invite request"
//	@Success		201		{object}	CreateInviteResponse	"the created invite and updated seat info"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		403		{object}	ErrorResponse			"error, error_description"
//	@Failure		409		{object}	ErrorResponse			"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/invites [post].
func (h *InviteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requesterID := httpx.UserIDFromContext(ctx)
	if requesterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Role == "" {
		req.Role = string(domain.RoleStandard)
	}

	invite, err := h.Invites.Create(ctx, requesterID, req.Email, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid email address")
		case errors.Is(err, domain.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid_request", "Role must be admin or standard")
		case errors.Is(err, service.ErrSelfInvite):
			writeError(w, http.StatusBadRequest, "invalid_request", "You cannot invite yourself")
		case errors.Is(err, service.ErrDomainMismatch):
			writeError(w, http.StatusBadRequest, "domain_mismatch", "Invitee email must match the company domain")
		case errors.Is(err, service.ErrNotAdmin):
			writeError(w, http.StatusForbidden, "forbidden", "Only admins can manage invites")
		case errors.Is(err, service.ErrSeatLimitReached):
			writeError(w, http.StatusForbidden, "seat_limit_reached", "All seats for this company are taken")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_in_use", "An account already exists for this email")
		case errors.Is(err, service.ErrInvitePending):
			writeError(w, http.StatusConflict, "invite_pending", "A pending invite already exists for this email")
		default:
			log.Error("invite creation failed", "err", err)
			writeServerError(w)
		}
		return
	}

	seats, err := h.Invites.Info(ctx, requesterID)
	if err != nil {
		log.Warn("seat info lookup failed after invite", "err", err)
	}

	httpx.WriteJSON(w, http.StatusCreated, CreateInviteResponse{
		Invite: toInviteResponse(invite),
		Seats:  seats,
	})
}

type ResendInviteRequest struct {
	InviteID string `json:"invite_id"`
}

// HandleResend godoc
//
//	@Summary		Resend Invite Endpoint
//	@Description	Re-send a pending invite with a fresh token and refreshed expiry. The requester must still be an admin with the seat constraint satisfied.
//	@Tags			Invites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResendInviteRequest	true	"Resend request"
//	@Success		200		{object}	MessageResponse		"message"
//	@Failure		403		{object}	ErrorResponse		"error, error_description"
//	@Failure		404		{object}	ErrorResponse		"error, error_description"
//	@Failure		409		{object}	ErrorResponse		"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/invites/resend [post].
func (h *InviteHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requesterID := httpx.UserIDFromContext(ctx)
	if requesterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req ResendInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.InviteID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "invite_id is required")
		return
	}

	if err := h.Invites.Resend(ctx, requesterID, req.InviteID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotAdmin):
			writeError(w, http.StatusForbidden, "forbidden", "Only admins can manage invites")
		case errors.Is(err, service.ErrSeatLimitReached):
			writeError(w, http.StatusForbidden, "seat_limit_reached", "All seats for this company are taken")
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Invite not found")
		case errors.Is(err, service.ErrInviteAlreadyAccepted):
			writeError(w, http.StatusConflict, "invite_accepted", "This invite has already been accepted")
		default:
			log.Error("invite resend failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Invite resent"})
}

type AcceptInviteRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// HandleAccept godoc
//
//	@Summary		Accept Invite Endpoint
//	@Description	Redeem an invite token and set a password. Accepts a JSON body or a form post from the emailed link page. The account is created already verified; the client should redirect to the login page afterwards. Accepting twice is a no-op success.
//	@Tags			Invites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AcceptInviteRequest	true	"Accept request"
//	@Success		200		{object}	UserResponse		"the created user"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		403		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/invites/accept [post].
func (h *InviteHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req AcceptInviteRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
			return
		}
		req = AcceptInviteRequest{
			Token:           r.PostFormValue("token"),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirm_password"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	user, err := h.Invites.Accept(ctx, req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "invalid_request", "Password must be at least 8 characters")
		case errors.Is(err, service.ErrPasswordMismatch):
			writeError(w, http.StatusBadRequest, "invalid_request", "Passwords do not match")
		case errors.Is(err, service.ErrInvalidToken):
			writeError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired invite token")
		case errors.Is(err, service.ErrSeatLimitReached):
			writeError(w, http.StatusForbidden, "seat_limit_reached", "All seats for this company are taken")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_in_use", "An account already exists for this email")
		default:
			log.Error("invite acceptance failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete godoc
//
//	@Summary		Delete Invite Endpoint
//	@Description	Remove an invite from the requester's company, freeing its seat if it was pending.
//	@Tags			Invites
//	@Produce		json
//	@Param			id	path		string			true	"invite ID"
//	@Success		200	{object}	MessageResponse	"message"
//	@Failure		403	{object}	ErrorResponse	"error, error_description"
//	@Failure		404	{object}	ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/invites/{id} [delete].
func (h *InviteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requesterID := httpx.UserIDFromContext(ctx)
	if requesterID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	inviteID := r.PathValue("id")
	if inviteID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "invite id is required")
		return
	}

	if err := h.Invites.Delete(ctx, requesterID, inviteID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotAdmin):
			writeError(w, http.StatusForbidden, "forbidden", "Only admins can manage invites")
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Invite not found")
		default:
			log.Error("invite deletion failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Invite deleted"})
}

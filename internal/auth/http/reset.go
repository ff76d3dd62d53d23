package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type ResetHandler struct {
	Resets *service.ResetService
}

type ResetRequestBody struct {
	Email string `json:"email"`
}

// HandleRequest godoc
//
//	@Summary		Password Reset Request Endpoint
//	@Description	Email a single-use password reset link. Responds 202 with an identical body whether or not the email belongs to an account.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResetRequestBody	true	"Reset request"
//	@Success		202		{object}	MessageResponse		"message"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		404		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/password-reset/request [post].
func (h *ResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ResetRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	// Anything short of the feature being disabled collapses into the one
	// generic 202 so the response carries no account-existence signal.
	if err := h.Resets.Request(ctx, req.Email); err != nil {
		if errors.Is(err, service.ErrResetDisabled) {
			writeError(w, http.StatusNotFound, "not_found", "Password reset is not enabled")
			return
		}
		log.Error("password reset request failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, MessageResponse{
		Message: "If this email belongs to an account, a reset link has been sent",
	})
}

type ResetConfirmBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// HandleConfirm godoc
//
//	@Summary		Password Reset Confirmation Endpoint
//	@Description	Redeem a reset token and set a new password. Tokens are single use; redeeming one invalidates every other outstanding token for the account and revokes existing sessions.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResetConfirmBody	true	"Reset confirmation"
//	@Success		200		{object}	MessageResponse		"message"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		404		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/password-reset/confirm [post].
func (h *ResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ResetConfirmBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	if err := h.Resets.Confirm(ctx, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrResetDisabled):
			writeError(w, http.StatusNotFound, "not_found", "Password reset is not enabled")
		case errors.Is(err, service.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "invalid_request", "Password must be at least 8 characters")
		case errors.Is(err, service.ErrResetTokenInvalid):
			writeError(w, http.StatusBadRequest, "invalid_token", "Invalid, expired or already used reset token")
		default:
			log.Error("password reset confirmation failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password updated"})
}

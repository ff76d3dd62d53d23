package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type ConfirmHandler struct {
	Accounts *service.AccountService
}

type ConfirmRequest struct {
	Token string `json:"token"`
}

// ServeHTTP godoc
//
//	@Summary		Email Confirmation Endpoint
//	@Description	Redeem the confirmation token from the sign-up email. Confirming an already verified account succeeds without error.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ConfirmRequest	true	"Confirmation request"
//	@Success		200		{object}	MessageResponse	"message"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		404		{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/auth/confirm [post].
func (h *ConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	_, already, err := h.Accounts.Confirm(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			writeError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired confirmation token")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "not_found", "User not found")
		default:
			log.Error("confirmation failed", "err", err)
			writeServerError(w)
		}
		return
	}

	msg := "Email confirmed"
	if already {
		msg = "Email already verified"
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type MagicLinkHandler struct {
	Sessions      *service.SessionService
	SecureCookies bool
}

type SendLinkRequest struct {
	Email string `json:"email"`
}

// HandleSend godoc
//
//	@Summary		Magic Link Request Endpoint
//	@Description	Email a passwordless sign-in link. The response is identical whether or not the email belongs to an account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SendLinkRequest	true	"Magic link request"
//	@Success		202		{object}	MessageResponse	"message"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/auth/send-link [post].
func (h *MagicLinkHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SendLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	// Internal failures are logged but flattened into the generic response
	// so the endpoint can't be used to probe for accounts.
	if err := h.Sessions.RequestMagicLink(ctx, req.Email); err != nil {
		log.Error("magic link request failed", "err", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, MessageResponse{
		Message: "If this email belongs to an account, a sign-in link has been sent",
	})
}

type MagicRedeemRequest struct {
	Token string `json:"token"`
}

// HandleRedeem godoc
//
//	@Summary		Magic Link Redemption Endpoint
//	@Description	Exchange a magic-link token for a session. On success the session cookie is set, same as a password sign-in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MagicRedeemRequest	true	"Magic link redemption"
//	@Success		200		{object}	UserResponse		"the signed-in user; session cookie is set"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Router			/v1/auth/magic [post].
func (h *MagicLinkHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req MagicRedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	user, token, err := h.Sessions.RedeemMagicLink(ctx, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired sign-in link")
			return
		}
		log.Error("magic link redemption failed", "err", err)
		writeServerError(w)
		return
	}

	setSessionCookie(w, token, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

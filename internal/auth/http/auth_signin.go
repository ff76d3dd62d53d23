package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type SignInHandler struct {
	Sessions      *service.SessionService
	SecureCookies bool
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Sign In Endpoint
//	@Description	Authenticate with email and password. On success a 7-day session token is set as an HTTP-only cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SignInRequest	true	"Sign-in request"
//	@Success		200		{object}	UserResponse	"the signed-in user; session cookie is set"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		401		{object}	ErrorResponse	"error, error_description"
//	@Failure		403		{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/auth/signin [post].
func (h *SignInHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, token, err := h.Sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		case errors.Is(err, service.ErrEmailNotVerified):
			writeError(w, http.StatusForbidden, "email_not_verified", "Confirm your email before signing in")
		default:
			log.Error("sign-in failed", "err", err)
			writeServerError(w)
		}
		return
	}

	setSessionCookie(w, token, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

type LogoutHandler struct {
	SecureCookies bool
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Clear the session cookie. The signed token itself simply expires; there is no server-side session state to destroy.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	MessageResponse	"message"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.SecureCookies)
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Signed out"})
}

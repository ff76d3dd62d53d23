package http

import (
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
)

type MeHandler struct {
	Accounts *service.AccountService
}

// HandleMe godoc
//
//	@Summary		Current User Endpoint
//	@Description	Return the authenticated user for the current session.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	UserResponse	"the authenticated user"
//	@Failure		401	{object}	ErrorResponse	"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/auth/me [get].
func (h *MeHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

type UserExistsResponse struct {
	Exists bool `json:"exists"`
}

// HandleUserExists godoc
//
//	@Summary		User Existence Check Endpoint
//	@Description	Report whether an account exists for the given email. Requires an authenticated session so it can't be used for anonymous enumeration.
//	@Tags			Auth
//	@Produce		json
//	@Param			email	query		string				true	"email to check"
//	@Success		200		{object}	UserExistsResponse	"exists"
//	@Failure		400		{object}	ErrorResponse		"error, error_description"
//	@Failure		401		{object}	ErrorResponse		"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/auth/user-exists [get].
func (h *MeHandler) HandleUserExists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email query parameter is required")
		return
	}

	exists, err := h.Accounts.UserExists(ctx, email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid email address")
			return
		}
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserExistsResponse{Exists: exists})
}

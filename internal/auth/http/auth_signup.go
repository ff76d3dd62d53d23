package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type SignUpHandler struct {
	Accounts *service.AccountService
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OrgName  string `json:"org_name,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary		Sign Up Endpoint
//	@Description	Register a new account. The company is derived from the email's domain part and created on first sign-up; the new user becomes its admin. A confirmation email is sent before the account can sign in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SignUpRequest	true	"Sign-up request"
//	@Success		201		{object}	UserResponse	"the created user"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		500		{object}	ErrorResponse	"error, error_description"
//	@Router			/v1/auth/signup [post].
func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	user, err := h.Accounts.SignUp(ctx, req.Email, req.Password, req.OrgName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid email address")
		case errors.Is(err, service.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "invalid_request", "Password must be at least 8 characters")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "email_in_use", "An account already exists for this email")
		default:
			log.Error("sign-up failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

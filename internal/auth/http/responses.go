package http

import (
	"net/http"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/pkg/httpx"
)

// ErrorResponse is the error body for every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// MessageResponse is a simple success body.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of a user record.
type UserResponse struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"company_id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	Role          string     `json:"role"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// InviteResponse is the public view of an invite record.
type InviteResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Status     string     `json:"status"`
	Role       string     `json:"role"`
	InvitedAt  time.Time  `json:"invited_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// HealthResponse is the body for the health probes.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
	Database string `json:"database,omitempty"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		CompanyID:     u.CompanyID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Role:          string(u.Role),
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

func toInviteResponse(inv domain.Invite) InviteResponse {
	return InviteResponse{
		ID:         inv.ID,
		Email:      inv.Email,
		Status:     string(inv.Status),
		Role:       string(inv.Role),
		InvitedAt:  inv.InvitedAt,
		AcceptedAt: inv.AcceptedAt,
	}
}

func writeError(w http.ResponseWriter, code int, errCode, description string) {
	httpx.WriteJSON(w, code, ErrorResponse{
		Error:            errCode,
		ErrorDescription: description,
	})
}

func writeInvalidJSON(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
}

func writeServerError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "server_error", "An unexpected error occurred")
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type SettingsHandler struct {
	Settings *service.SettingsService
}

type SettingsResponse struct {
	DefaultMaxUsers int    `json:"default_max_users"`
	UpdatedBy       string `json:"updated_by,omitempty"`
}

type UpdateSettingsRequest struct {
	DefaultMaxUsers int `json:"default_max_users"`
}

func toSettingsResponse(s domain.Settings) SettingsResponse {
	return SettingsResponse{
		DefaultMaxUsers: s.DefaultMaxUsers,
		UpdatedBy:       s.UpdatedBy,
	}
}

// HandleGet godoc
//
//	@Summary		System Settings Endpoint
//	@Description	Read global defaults such as the seat cap seeded into new companies. Restricted to the configured superadmin allow-list.
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	SettingsResponse	"current settings"
//	@Failure		403	{object}	ErrorResponse		"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/system/settings [get].
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := sessionUser(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	settings, err := h.Settings.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotSuperadmin) {
			writeError(w, http.StatusForbidden, "forbidden", "Superadmin access required")
			return
		}
		log.Error("settings lookup failed", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// HandleUpdate godoc
//
//	@Summary		Update System Settings Endpoint
//	@Description	Change global defaults. Only affects companies created after the change; existing seat caps are untouched.
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			request	body		UpdateSettingsRequest	true	"Settings update"
//	@Success		200		{object}	SettingsResponse		"updated settings"
//	@Failure		400		{object}	ErrorResponse			"error, error_description"
//	@Failure		403		{object}	ErrorResponse			"error, error_description"
//	@Security		SessionAuth
//	@Router			/v1/system/settings [put].
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := sessionUser(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w)
		return
	}

	settings, err := h.Settings.Update(ctx, user.Email, req.DefaultMaxUsers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotSuperadmin):
			writeError(w, http.StatusForbidden, "forbidden", "Superadmin access required")
		case errors.Is(err, service.ErrInvalidSeatCap):
			writeError(w, http.StatusBadRequest, "invalid_request", "default_max_users must not be negative")
		default:
			log.Error("settings update failed", "err", err)
			writeServerError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

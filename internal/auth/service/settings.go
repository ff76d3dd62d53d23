package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/pkg/slogx"
)

var (
	ErrNotSuperadmin  = errors.New("requires superadmin")
	ErrInvalidSeatCap = errors.New("seat cap must be zero or positive")
)

// SettingsService manages the global settings row. Only emails on the
// superadmin allow-list may read or change it.
type SettingsService struct {
	Store store.Store

	// Superadmins is the allow-list of operator emails, lowercased.
	Superadmins []string

	// DefaultSeats is returned when no settings row exists yet.
	DefaultSeats int
}

// Get returns the global settings, synthesizing defaults when the row has
// never been written.
func (s *SettingsService) Get(ctx context.Context, requesterEmail string) (domain.Settings, error) {
	if !s.isSuperadmin(requesterEmail) {
		return domain.Settings{}, ErrNotSuperadmin
	}

	settings, err := s.Store.Settings().GetSettings(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Settings{
			ID:              domain.SettingsID,
			DefaultMaxUsers: s.DefaultSeats,
		}, nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// Update sets the default seat cap applied to newly created companies.
// Existing companies keep their cap.
func (s *SettingsService) Update(ctx context.Context, requesterEmail string, defaultMaxUsers int) (domain.Settings, error) {
	if !s.isSuperadmin(requesterEmail) {
		return domain.Settings{}, ErrNotSuperadmin
	}
	if defaultMaxUsers < 0 {
		return domain.Settings{}, ErrInvalidSeatCap
	}

	settings := domain.Settings{
		ID:              domain.SettingsID,
		DefaultMaxUsers: defaultMaxUsers,
		UpdatedBy:       strings.ToLower(requesterEmail),
	}
	if err := s.Store.Settings().UpsertSettings(ctx, settings); err != nil {
		return domain.Settings{}, err
	}

	slogx.FromContext(ctx).Info("global settings updated",
		slog.Int("default_max_users", defaultMaxUsers),
		slog.String("updated_by", settings.UpdatedBy),
	)
	return settings, nil
}

func (s *SettingsService) isSuperadmin(email string) bool {
	return slices.Contains(s.Superadmins, strings.ToLower(email))
}

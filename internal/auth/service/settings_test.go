package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newSettingsService(t *testing.T) *SettingsService {
	t.Helper()

	return &SettingsService{
		Store:        newTestStore(t),
		Superadmins:  []string{"ops@example.com"},
		DefaultSeats: 5,
	}
}

func TestSettingsRequireSuperadmin(t *testing.T) {
	ctx := context.Background()
	svc := newSettingsService(t)

	_, err := svc.Get(ctx, "alice@acme.com")
	require.ErrorIs(t, err, ErrNotSuperadmin)

	_, err = svc.Update(ctx, "alice@acme.com", 10)
	require.ErrorIs(t, err, ErrNotSuperadmin)
}

func TestSettingsDefaultsBeforeSeeding(t *testing.T) {
	ctx := context.Background()
	svc := newSettingsService(t)

	settings, err := svc.Get(ctx, "ops@example.com")
	require.NoError(t, err)
	require.Equal(t, 5, settings.DefaultMaxUsers)
}

func TestSettingsUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newSettingsService(t)

	updated, err := svc.Update(ctx, "Ops@Example.com", 12)
	require.NoError(t, err)
	require.Equal(t, 12, updated.DefaultMaxUsers)
	require.Equal(t, "ops@example.com", updated.UpdatedBy)

	settings, err := svc.Get(ctx, "ops@example.com")
	require.NoError(t, err)
	require.Equal(t, 12, settings.DefaultMaxUsers)

	_, err = svc.Update(ctx, "ops@example.com", -1)
	require.ErrorIs(t, err, ErrInvalidSeatCap)
}

package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/store"
	"github.com/onevision/baselogin/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingStartStop(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC()
	expired := domain.ResetToken{
		ID:        idx.New().String(),
		TokenHash: "expired-hash",
		Email:     "alice@acme.com",
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, st.ResetTokens().CreateResetToken(ctx, expired))

	svc := NewHousekeepingService(st, slog.New(slog.DiscardHandler), time.Hour)
	svc.Start()

	// Stop blocks until the startup sweep has finished.
	svc.Stop()

	_, err := st.ResetTokens().GetResetTokenByHash(ctx, "expired-hash")
	require.ErrorIs(t, err, store.ErrNotFound)
}

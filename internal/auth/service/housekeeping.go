package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/onevision/baselogin/internal/auth/store"
)

// StaleInviteRetention is how long a pending invite row survives past its
// last (re)send before the sweeper removes it. Invite tokens expire after
// 24 hours; the retention window is generous so admins can still see and
// resend lapsed invites.
const StaleInviteRetention = 30 * 24 * time.Hour

// HousekeepingService periodically removes expired reset tokens and long
// abandoned pending invites so the tables don't grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and blocks until any in-progress sweep ends.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the deletions. Each sweep is independent so a failure in
// one doesn't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	s.Logger.Debug("starting housekeeping cleanup")

	if err := s.Store.ResetTokens().DeleteExpiredResetTokens(ctx); err != nil {
		s.Logger.Error("failed to delete expired reset tokens", "error", err)
	}

	cutoff := time.Now().UTC().Add(-StaleInviteRetention)
	if err := s.Store.Invites().DeleteStalePendingInvites(ctx, cutoff); err != nil {
		s.Logger.Error("failed to delete stale pending invites", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed")
}

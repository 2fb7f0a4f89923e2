package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

// SweepResult counts what one housekeeping pass changed.
type SweepResult struct {
	InvitationsExpired int
	SharesDeactivated  int
}

// HousekeepingService periodically expires overdue invitations and switches
// off lapsed shares. The sweeps are ordinary service calls; this is just one
// scheduler for them.
type HousekeepingService struct {
	Invitations *InvitationService
	Sharing     *SharingService
	Logger      *slog.Logger
	Interval    time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to 15 minutes.
func NewHousekeepingService(
	invitations *InvitationService,
	sharing *SharingService,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slogx.Discard()
	}
	return &HousekeepingService{
		Invitations: invitations,
		Sharing:     sharing,
		Logger:      logger,
		Interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start runs a pass immediately and then every Interval until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop blocks until any in-flight pass has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx := slogx.WithContext(context.Background(), s.Logger)
	s.pass(ctx)

	for {
		select {
		case <-ticker.C:
			s.pass(ctx)
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) pass(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.Logger.Error("housekeeping pass failed", slog.Any("error", err))
	}
	s.Logger.Info("housekeeping pass completed",
		slog.Int("invitations_expired", res.InvitationsExpired),
		slog.Int("shares_deactivated", res.SharesDeactivated),
	)
}

// RunOnce runs both sweeps. A failure in one does not stop the other; the
// errors are joined.
func (s *HousekeepingService) RunOnce(ctx context.Context) (SweepResult, error) {
	var (
		res  SweepResult
		errs []error
	)

	n, err := s.Invitations.ExpireOldInvitations(ctx)
	res.InvitationsExpired = n
	if err != nil {
		errs = append(errs, err)
	}

	n, err = s.Sharing.CleanupExpiredShares(ctx)
	res.SharesDeactivated = n
	if err != nil {
		errs = append(errs, err)
	}

	return res, errors.Join(errs...)
}

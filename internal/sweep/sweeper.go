package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/axiestudio/axie-access/internal/models"
	"github.com/axiestudio/axie-access/internal/services"
	"github.com/google/uuid"
)

type trialStore interface {
	ListExpired(now time.Time) ([]models.TrialRecord, error)
	ListDueForDeletion(now time.Time) ([]models.TrialRecord, error)
	SetStatus(userID uuid.UUID, status string, deletionAt *time.Time) error
}

type accountDeleter interface {
	TeardownUser(ctx context.Context, userID uuid.UUID, reason string) error
}

// Sweeper runs the two periodic lifecycle passes: marking free trials
// expired once their window closes, and executing deletions whose grace
// period has elapsed. A single instance should run per deployment; the
// passes are idempotent, so an overlapping run after a restart is
// harmless, just wasteful.
type Sweeper struct {
	trials   trialStore
	deleter  accountDeleter
	interval time.Duration
}

func NewSweeper(trials trialStore, deleter accountDeleter, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{trials: trials, deleter: deleter, interval: interval}
}

// Run executes a pass immediately and then on every tick until the
// context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Sweeper) runAndLog(ctx context.Context) {
	expired, deleted, err := s.RunOnce(ctx)
	if err != nil {
		slog.Error("lifecycle sweep failed", "error", err)
		return
	}
	if expired > 0 || deleted > 0 {
		slog.Info("lifecycle sweep completed", "expired_trials", expired, "deletions_executed", deleted)
	}
}

// RunOnce performs one sweep pass and reports how many trials were
// expired and how many scheduled deletions were executed. Per-user
// failures are logged and skipped so one bad record cannot wedge the
// whole pass.
func (s *Sweeper) RunOnce(ctx context.Context) (expired, deleted int, err error) {
	now := time.Now().UTC()

	expiredTrials, err := s.trials.ListExpired(now)
	if err != nil {
		return 0, 0, err
	}
	for _, trial := range expiredTrials {
		if err := s.trials.SetStatus(trial.UserID, models.TrialExpired, nil); err != nil {
			slog.Error("failed to expire trial", "user_id", trial.UserID, "error", err)
			continue
		}
		expired++
	}

	due, err := s.trials.ListDueForDeletion(now)
	if err != nil {
		return expired, 0, err
	}
	for _, trial := range due {
		if err := s.deleter.TeardownUser(ctx, trial.UserID, "retention_expired"); err != nil {
			// Protected and already-gone accounts are expected here;
			// anything else needs eyes.
			if errors.Is(err, services.ErrProtectedAccount) || errors.Is(err, services.ErrUserNotFound) {
				slog.Warn("skipping scheduled deletion", "user_id", trial.UserID, "reason", err)
			} else {
				slog.Error("scheduled deletion failed", "user_id", trial.UserID, "error", err)
			}
			continue
		}
		deleted++
	}

	return expired, deleted, nil
}

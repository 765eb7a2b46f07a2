package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
)

type reconciler interface {
	ReconcileAllAccounts(ctx context.Context) (*ReconcileReport, error)
}

type cacheJanitor interface {
	CleanExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler runs reconciliation on a fixed interval and sweeps expired
// idempotency records after each run.
type Scheduler struct {
	reconciler reconciler
	janitor    cacheJanitor
	logger     *slog.Logger
	interval   time.Duration
}

func NewScheduler(r reconciler, janitor cacheJanitor, logger *slog.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		reconciler: r,
		janitor:    janitor,
		logger:     logger,
		interval:   interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("reconcile scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reconcile scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	ctx = logging.WithLogger(ctx, s.logger)

	report, err := s.reconciler.ReconcileAllAccounts(ctx)
	switch {
	case errors.Is(err, domain.ErrReconcileInProgress):
		s.logger.Info("reconcile skipped, another run holds the lock")
	case err != nil:
		s.logger.Error("scheduled reconcile failed", "error", err)
	case len(report.Drifts) > 0:
		s.logger.Warn("scheduled reconcile corrected balances", "drifts", len(report.Drifts))
	}

	if s.janitor == nil {
		return
	}
	n, err := s.janitor.CleanExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to clean idempotency cache", "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug("idempotency cache cleaned", "removed", n)
	}
}

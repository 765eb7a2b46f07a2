package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/metrics"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

// NormalizeNegativeEntries rewrites each negative entry as its absolute
// amount on the opposite side. The signed effect of every entry is unchanged,
// so cached balances are left alone.
func (s *Service) NormalizeNegativeEntries(ctx context.Context) (*NormalizeReport, error) {
	report := &NormalizeReport{RunID: uuid.New(), StartedAt: time.Now().UTC()}
	ctx, log := logging.WithJob(ctx, "normalize", report.RunID.String())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("NormalizeNegativeEntries: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := repository.LockExclusive(ctx, tx, repository.MaintenanceLock); err != nil {
		return nil, fmt.Errorf("NormalizeNegativeEntries: %w", err)
	}

	entries, err := s.ledger.NegativeForUpdate(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("NormalizeNegativeEntries: %w", err)
	}

	for i, e := range entries {
		var flipped bool
		err := repository.WithSavepoint(ctx, tx, fmt.Sprintf("normalize_%d", i), func() error {
			var err error
			flipped, err = s.ledger.FlipNegative(ctx, tx, e.ID)
			return err
		})
		if err != nil {
			log.Error("entry normalize failed", "entry_id", e.ID, "error", err)
			report.Errors = append(report.Errors, itemError(e.ID, err))
			continue
		}
		if flipped {
			report.Normalized = append(report.Normalized, e.ID)
		}
	}

	if len(report.Normalized) > 0 || len(report.Errors) > 0 {
		if err := s.writeAudit(ctx, tx, domain.AuditActionNormalize, report.RunID, map[string]int{
			"normalized": len(report.Normalized),
			"errors":     len(report.Errors),
		}); err != nil {
			return nil, fmt.Errorf("NormalizeNegativeEntries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("NormalizeNegativeEntries: commit: %w", err)
	}
	report.FinishedAt = time.Now().UTC()

	metrics.RecordJob("normalize", report.FinishedAt.Sub(report.StartedAt), len(report.Normalized), len(report.Errors) == 0)
	log.Info("normalize finished", "normalized", len(report.Normalized), "errors", len(report.Errors))
	return report, nil
}

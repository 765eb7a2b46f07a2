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

// ReconcileAllAccounts recomputes every cached account balance from its
// entries and rewrites the ones that drifted. Only one run may be active
// across all processes; a second caller gets domain.ErrReconcileInProgress.
func (s *Service) ReconcileAllAccounts(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{RunID: uuid.New(), StartedAt: time.Now().UTC()}
	ctx, log := logging.WithJob(ctx, "reconcile", report.RunID.String())

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReconcileAllAccounts: conn: %w", err)
	}
	defer conn.Close()

	acquired, err := repository.TryLockSession(ctx, conn, repository.ReconcileRunLock)
	if err != nil {
		return nil, fmt.Errorf("ReconcileAllAccounts: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("ReconcileAllAccounts: %w", domain.ErrReconcileInProgress)
	}
	defer func() {
		if err := repository.UnlockSession(context.WithoutCancel(ctx), conn, repository.ReconcileRunLock); err != nil {
			log.Error("failed to release reconcile lock", "error", err)
		}
	}()

	ids, err := s.accounts.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("ReconcileAllAccounts: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ReconcileAllAccounts: %w", err)
		}

		report.Checked++
		drift, err := s.reconcileAccount(ctx, id)
		if err != nil {
			log.Error("account reconcile failed", "account_id", id, "error", err)
			report.Errors = append(report.Errors, itemError(id, err))
			continue
		}
		if drift != nil {
			log.Warn("account balance corrected",
				"account_id", drift.AccountID,
				"code", drift.Code,
				"stored", drift.Stored,
				"recomputed", drift.Recomputed,
			)
			report.Drifts = append(report.Drifts, *drift)
		}
	}
	report.FinishedAt = time.Now().UTC()

	if err := s.writeAudit(ctx, nil, domain.AuditActionReconcile, report.RunID, map[string]int{
		"checked": report.Checked,
		"drifts":  len(report.Drifts),
		"errors":  len(report.Errors),
	}); err != nil {
		log.Error("failed to audit reconcile run", "error", err)
	}

	metrics.RecordJob("reconcile", report.FinishedAt.Sub(report.StartedAt), len(report.Drifts), len(report.Errors) == 0)
	log.Info("reconcile finished", "checked", report.Checked, "drifts", len(report.Drifts), "errors", len(report.Errors))
	return report, nil
}

// reconcileAccount returns nil when the stored balance is within tolerance.
func (s *Service) reconcileAccount(ctx context.Context, id uuid.UUID) (*BalanceDrift, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("reconcileAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := repository.LockExclusive(ctx, tx, repository.LedgerWriteLock); err != nil {
		return nil, fmt.Errorf("reconcileAccount: %w", err)
	}

	acct, err := s.accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("reconcileAccount: %w", err)
	}

	debits, credits, err := s.ledger.TotalsByAccount(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("reconcileAccount: %w", err)
	}

	recomputed := domain.BalanceFromTotals(acct.Type, debits, credits)
	if domain.WithinTolerance(recomputed, acct.Balance) {
		return nil, nil
	}

	if err := s.accounts.UpdateBalance(ctx, tx, id, recomputed, acct.Version+1); err != nil {
		return nil, fmt.Errorf("reconcileAccount: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("reconcileAccount: commit: %w", err)
	}

	return &BalanceDrift{
		AccountID:  acct.ID,
		Code:       acct.Code,
		Stored:     acct.Balance,
		Recomputed: recomputed,
	}, nil
}

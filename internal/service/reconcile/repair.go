package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/metrics"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

// correctionFor returns the side and amount of the entry that brings a
// transaction's debits and credits level.
func correctionFor(debits, credits decimal.Decimal) (domain.Direction, decimal.Decimal) {
	diff := debits.Sub(credits)
	if diff.IsPositive() {
		return domain.DirectionCredit, diff
	}
	return domain.DirectionDebit, diff.Abs()
}

// RepairUnbalancedTransactions books the difference of every unbalanced
// transaction to the Suspense account. The pass runs in one database
// transaction; a transaction whose correction fails is rolled back to its
// savepoint and reported while the rest are committed.
func (s *Service) RepairUnbalancedTransactions(ctx context.Context) (*RepairReport, error) {
	report := &RepairReport{RunID: uuid.New(), StartedAt: time.Now().UTC()}
	ctx, log := logging.WithJob(ctx, "repair", report.RunID.String())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := repository.LockExclusive(ctx, tx, repository.MaintenanceLock); err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: %w", err)
	}
	if err := repository.LockExclusive(ctx, tx, repository.LedgerWriteLock); err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: %w", err)
	}

	groups, err := s.ledger.UnbalancedGroups(ctx, tx, domain.BalanceTolerance)
	if err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: %w", err)
	}
	if len(groups) == 0 {
		report.FinishedAt = time.Now().UTC()
		log.Info("repair finished, nothing to do")
		metrics.RecordJob("repair", report.FinishedAt.Sub(report.StartedAt), 0, true)
		return report, nil
	}

	suspense, err := s.lockSuspense(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: %w", err)
	}
	report.SuspenseAccountID = suspense.ID

	balance := suspense.Balance
	description := CorrectionDescription
	for i, g := range groups {
		if g.Currency != suspense.Currency {
			err := fmt.Errorf("transaction in %q, suspense in %q: %w", g.Currency, suspense.Currency, domain.ErrCurrencyMismatch)
			log.Warn("transaction repair skipped", "transaction_id", g.TransactionID, "error", err)
			report.Errors = append(report.Errors, itemError(g.TransactionID, err))
			continue
		}

		direction, amount := correctionFor(g.Debits, g.Credits)
		entry := &domain.LedgerEntry{
			ID:            uuid.New(),
			TransactionID: g.TransactionID,
			AccountID:     suspense.ID,
			Amount:        amount,
			Direction:     direction,
			Description:   &description,
			CreatedAt:     time.Now().UTC(),
		}

		err := repository.WithSavepoint(ctx, tx, fmt.Sprintf("repair_%d", i), func() error {
			return s.ledger.Create(ctx, tx, entry)
		})
		if err != nil {
			log.Error("transaction repair failed", "transaction_id", g.TransactionID, "error", err)
			report.Errors = append(report.Errors, itemError(g.TransactionID, err))
			continue
		}

		balance = balance.Add(suspense.Delta(amount, direction))
		report.Corrections = append(report.Corrections, Correction{
			TransactionID: g.TransactionID,
			EntryID:       entry.ID,
			Direction:     direction,
			Amount:        amount,
		})
	}

	if len(report.Corrections) > 0 {
		if err := s.accounts.UpdateBalance(ctx, tx, suspense.ID, balance, suspense.Version+1); err != nil {
			return nil, fmt.Errorf("RepairUnbalancedTransactions: suspense balance: %w", err)
		}
	}

	if err := s.writeAudit(ctx, tx, domain.AuditActionRepair, report.RunID, map[string]any{
		"corrections": len(report.Corrections),
		"errors":      len(report.Errors),
		"suspense":    suspense.Code,
	}); err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RepairUnbalancedTransactions: commit: %w", err)
	}
	report.FinishedAt = time.Now().UTC()

	metrics.RecordJob("repair", report.FinishedAt.Sub(report.StartedAt), len(report.Corrections), len(report.Errors) == 0)
	log.Info("repair finished",
		"corrections", len(report.Corrections),
		"errors", len(report.Errors),
		"suspense_balance", balance,
	)
	return report, nil
}

// lockSuspense creates the Suspense account on first use and locks its row.
// An existing account keeps the currency it was created with.
func (s *Service) lockSuspense(ctx context.Context, tx *sql.Tx) (*domain.Account, error) {
	if !s.suspenseCurrency.IsValid() {
		return nil, fmt.Errorf("lockSuspense: %w", domain.Invalid("unsupported suspense currency %q", s.suspenseCurrency))
	}
	suspense, created, err := s.accounts.CreateIfAbsent(ctx, tx, &domain.Account{
		ID:        uuid.New(),
		Code:      s.suspenseCode,
		Name:      suspenseName,
		Type:      domain.AccountTypeEquity,
		Balance:   decimal.Zero,
		Currency:  s.suspenseCurrency,
		IsSystem:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("lockSuspense: %w", err)
	}
	if created {
		logging.FromContext(ctx).Info("suspense account created", "account_id", suspense.ID, "code", suspense.Code)
	}

	locked, err := s.accounts.GetForUpdate(ctx, tx, suspense.ID)
	if err != nil {
		return nil, fmt.Errorf("lockSuspense: %w", err)
	}
	return locked, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

const ledgerColumns = `id, transaction_id, account_id, amount, direction, description, created_at`

// GroupTotals are the debit and credit sums of one transaction's entries.
// Currency is empty when the entries post to accounts in more than one
// currency.
type GroupTotals struct {
	TransactionID uuid.UUID
	Currency      domain.Currency
	Debits        decimal.Decimal
	Credits       decimal.Decimal
}

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, transaction_id, account_id, amount, direction, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.TransactionID, entry.AccountID, entry.Amount,
		entry.Direction, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("GetByTransactionID: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	return entries, total, nil
}

// TotalsByAccount sums raw entry amounts per direction for one account.
func (r *LedgerRepository) TotalsByAccount(ctx context.Context, q Querier, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	if q == nil {
		q = r.db
	}
	var debits, credits decimal.Decimal
	err := q.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0)
		FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("TotalsByAccount: %w", err)
	}
	return debits, credits, nil
}

// UnbalancedGroups returns every transaction whose debit and credit sums
// differ by more than tolerance.
func (r *LedgerRepository) UnbalancedGroups(ctx context.Context, q Querier, tolerance decimal.Decimal) ([]GroupTotals, error) {
	if q == nil {
		q = r.db
	}
	rows, err := q.QueryContext(ctx,
		`SELECT e.transaction_id,
			CASE WHEN COUNT(DISTINCT a.currency) = 1 THEN MIN(a.currency) ELSE '' END AS currency,
			COALESCE(SUM(e.amount) FILTER (WHERE e.direction = 'DEBIT'), 0) AS debits,
			COALESCE(SUM(e.amount) FILTER (WHERE e.direction = 'CREDIT'), 0) AS credits
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		GROUP BY e.transaction_id
		HAVING ABS(COALESCE(SUM(e.amount) FILTER (WHERE e.direction = 'DEBIT'), 0)
			- COALESCE(SUM(e.amount) FILTER (WHERE e.direction = 'CREDIT'), 0)) > $1
		ORDER BY e.transaction_id`, tolerance,
	)
	if err != nil {
		return nil, fmt.Errorf("UnbalancedGroups: %w", err)
	}
	defer rows.Close()

	var groups []GroupTotals
	for rows.Next() {
		var g GroupTotals
		if err := rows.Scan(&g.TransactionID, &g.Currency, &g.Debits, &g.Credits); err != nil {
			return nil, fmt.Errorf("UnbalancedGroups: scan: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("UnbalancedGroups: rows: %w", err)
	}
	return groups, nil
}

func (r *LedgerRepository) NegativeForUpdate(ctx context.Context, tx *sql.Tx) ([]domain.LedgerEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE amount < 0 ORDER BY created_at, id FOR UPDATE`,
	)
	if err != nil {
		return nil, fmt.Errorf("NegativeForUpdate: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("NegativeForUpdate: %w", err)
	}
	return entries, nil
}

// FlipNegative rewrites a negative entry as its positive amount on the
// opposite side. It reports false when the entry was already non-negative.
func (r *LedgerRepository) FlipNegative(ctx context.Context, tx *sql.Tx, id uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries
		SET amount = -amount,
			direction = CASE direction WHEN 'DEBIT' THEN 'CREDIT' ELSE 'DEBIT' END
		WHERE id = $1 AND amount < 0`, id,
	)
	if err != nil {
		return false, fmt.Errorf("FlipNegative: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("FlipNegative: rows affected: %w", err)
	}
	return n == 1, nil
}

func collectLedgerEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.TransactionID, &e.AccountID, &e.Amount,
		&e.Direction, &e.Description, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

const customerEntryColumns = `id, contact_id, debit, credit, status, description,
	reconciled_by, reconciled_at, created_at`

type CustomerLedgerRepository struct {
	db *sql.DB
}

func NewCustomerLedgerRepository(db *sql.DB) *CustomerLedgerRepository {
	return &CustomerLedgerRepository{db: db}
}

func (r *CustomerLedgerRepository) Create(ctx context.Context, e *domain.CustomerLedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customer_ledger_entries (
			id, contact_id, debit, credit, status, description, reconciled_by, reconciled_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ContactID, e.Debit, e.Credit, e.Status, e.Description,
		e.ReconciledBy, e.ReconciledAt, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CustomerLedgerRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CustomerLedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+customerEntryColumns+` FROM customer_ledger_entries WHERE id = $1 FOR UPDATE`, id,
	)
	e, err := scanCustomerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return e, nil
}

func (r *CustomerLedgerRepository) Confirm(ctx context.Context, tx *sql.Tx, id, by uuid.UUID, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE customer_ledger_entries
		SET status = $1, reconciled_by = $2, reconciled_at = $3
		WHERE id = $4 AND status = $5`,
		domain.CustomerEntryConfirmed, by, at, id, domain.CustomerEntryPending,
	)
	if err != nil {
		return fmt.Errorf("Confirm: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Confirm: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Confirm: %w", domain.ErrAlreadyConfirmed)
	}
	return nil
}

// Totals sums every entry for the contact regardless of status.
func (r *CustomerLedgerRepository) Totals(ctx context.Context, contactID uuid.UUID) (*domain.CustomerTotals, error) {
	var t domain.CustomerTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0)
		FROM customer_ledger_entries WHERE contact_id = $1`, contactID,
	).Scan(&t.TotalDebit, &t.TotalCredit)
	if err != nil {
		return nil, fmt.Errorf("Totals: %w", err)
	}
	return &t, nil
}

func scanCustomerEntry(s scanner) (*domain.CustomerLedgerEntry, error) {
	var e domain.CustomerLedgerEntry
	err := s.Scan(
		&e.ID, &e.ContactID, &e.Debit, &e.Credit, &e.Status, &e.Description,
		&e.ReconciledBy, &e.ReconciledAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Advisory lock keys. Postings hold LedgerWriteLock shared; reconciliation of
// a single account holds it exclusively so balances are recomputed from a
// settled set of entries.
const (
	LedgerWriteLock  int64 = 0x6c6564676572 // "ledger"
	ReconcileRunLock int64 = 0x7265636f6e   // "recon"
	MaintenanceLock  int64 = 0x6d61696e74   // "maint"
)

func LockShared(ctx context.Context, tx *sql.Tx, key int64) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, key); err != nil {
		return fmt.Errorf("LockShared: %w", err)
	}
	return nil
}

func LockExclusive(ctx context.Context, tx *sql.Tx, key int64) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
		return fmt.Errorf("LockExclusive: %w", err)
	}
	return nil
}

// TryLockSession takes a session-level lock on conn. The caller must release
// it with UnlockSession on the same connection.
func TryLockSession(ctx context.Context, conn *sql.Conn, key int64) (bool, error) {
	var ok bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		return false, fmt.Errorf("TryLockSession: %w", err)
	}
	return ok, nil
}

func UnlockSession(ctx context.Context, conn *sql.Conn, key int64) error {
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, key); err != nil {
		return fmt.Errorf("UnlockSession: %w", err)
	}
	return nil
}

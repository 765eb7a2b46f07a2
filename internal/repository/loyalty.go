package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

type LoyaltyRepository struct {
	db *sql.DB
}

func NewLoyaltyRepository(db *sql.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

// GetBalance returns a zero balance for customers who never earned points.
func (r *LoyaltyRepository) GetBalance(ctx context.Context, customerID uuid.UUID) (*domain.LoyaltyBalance, error) {
	b := domain.LoyaltyBalance{CustomerID: customerID}
	err := r.db.QueryRowContext(ctx,
		`SELECT points, version, updated_at FROM loyalty_balances WHERE customer_id = $1`, customerID,
	).Scan(&b.Points, &b.Version, &b.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return &b, nil
}

// GetBalanceForUpdate creates the balance row on first use and locks it.
func (r *LoyaltyRepository) GetBalanceForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) (*domain.LoyaltyBalance, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loyalty_balances (customer_id, points, version, updated_at)
		VALUES ($1, 0, 0, now())
		ON CONFLICT (customer_id) DO NOTHING`, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetBalanceForUpdate: ensure: %w", err)
	}

	b := domain.LoyaltyBalance{CustomerID: customerID}
	err = tx.QueryRowContext(ctx,
		`SELECT points, version, updated_at FROM loyalty_balances WHERE customer_id = $1 FOR UPDATE`, customerID,
	).Scan(&b.Points, &b.Version, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("GetBalanceForUpdate: %w", err)
	}
	return &b, nil
}

func (r *LoyaltyRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, points, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loyalty_balances SET points = $1, version = $2, updated_at = now()
		WHERE customer_id = $3 AND version = $4`,
		points, newVersion, customerID, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *LoyaltyRepository) CreateTransaction(ctx context.Context, tx *sql.Tx, lt *domain.LoyaltyTransaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO loyalty_transactions (id, customer_id, outlet_id, sale_id, kind, points, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		lt.ID, lt.CustomerID, lt.OutletID, lt.SaleID, lt.Kind, lt.Points, lt.Value, lt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("CreateTransaction: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("CreateTransaction: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

type OutletRepository struct {
	db *sql.DB
}

func NewOutletRepository(db *sql.DB) *OutletRepository {
	return &OutletRepository{db: db}
}

func (r *OutletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Outlet, error) {
	var o domain.Outlet
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, loyalty_earning_rate, loyalty_redemption_rate, tax_rate, created_at
		FROM outlets WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.LoyaltyEarningRate, &o.LoyaltyRedemptionRate, &o.TaxRate, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &o, nil
}

func (r *OutletRepository) Create(ctx context.Context, o *domain.Outlet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outlets (id, name, loyalty_earning_rate, loyalty_redemption_rate, tax_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Name, o.LoyaltyEarningRate, o.LoyaltyRedemptionRate, o.TaxRate, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

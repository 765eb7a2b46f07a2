package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Outlet struct {
	ID                    uuid.UUID
	Name                  string
	LoyaltyEarningRate    decimal.Decimal
	LoyaltyRedemptionRate decimal.Decimal
	TaxRate               decimal.Decimal
	CreatedAt             time.Time
}

type LoyaltyKind string

const (
	LoyaltyKindEarn   LoyaltyKind = "EARN"
	LoyaltyKindRedeem LoyaltyKind = "REDEEM"
)

type LoyaltyBalance struct {
	CustomerID uuid.UUID
	Points     int64
	Version    int64
	UpdatedAt  time.Time
}

type LoyaltyTransaction struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	OutletID   uuid.UUID
	SaleID     *uuid.UUID
	Kind       LoyaltyKind
	Points     int64
	Value      decimal.Decimal
	CreatedAt  time.Time
}

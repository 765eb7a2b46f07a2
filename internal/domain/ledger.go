package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

func (d Direction) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

func (d Direction) Opposite() Direction {
	if d == DirectionDebit {
		return DirectionCredit
	}
	return DirectionDebit
}

type Transaction struct {
	ID          uuid.UUID
	Description string
	OccurredAt  time.Time
	CreatedAt   time.Time
	Entries     []LedgerEntry
}

// LedgerEntry.Amount is non-negative; the sign lives in Direction.
type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Amount        decimal.Decimal
	Direction     Direction
	Description   *string
	CreatedAt     time.Time
}

// Signed returns the entry amount as a debit-positive value.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionCredit {
		return e.Amount.Neg()
	}
	return e.Amount
}

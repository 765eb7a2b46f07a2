package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Contact struct {
	ID            uuid.UUID
	Name          string
	Email         *string
	Phone         *string
	WalletBalance decimal.Decimal
	CreatedAt     time.Time
}

type CustomerEntryStatus string

const (
	CustomerEntryPending   CustomerEntryStatus = "PENDING"
	CustomerEntryConfirmed CustomerEntryStatus = "CONFIRMED"
)

// CustomerLedgerEntry tracks receivable activity for a contact: debits are
// sales on credit, credits are payments received.
type CustomerLedgerEntry struct {
	ID           uuid.UUID
	ContactID    uuid.UUID
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Status       CustomerEntryStatus
	Description  *string
	ReconciledBy *uuid.UUID
	ReconciledAt *time.Time
	CreatedAt    time.Time
}

type CustomerTotals struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

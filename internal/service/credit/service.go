package credit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

type contactRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
}

type customerLedgerRepo interface {
	Create(ctx context.Context, e *domain.CustomerLedgerEntry) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.CustomerLedgerEntry, error)
	Confirm(ctx context.Context, tx *sql.Tx, id, by uuid.UUID, at time.Time) error
	Totals(ctx context.Context, contactID uuid.UUID) (*domain.CustomerTotals, error)
}

type auditRepo interface {
	Append(ctx context.Context, q repository.Querier, entry *domain.AuditLog) error
}

type Service struct {
	contacts contactRepo
	entries  customerLedgerRepo
	audit    auditRepo
	db       *sql.DB
}

func NewService(contacts contactRepo, entries customerLedgerRepo, audit auditRepo, db *sql.DB) *Service {
	return &Service{contacts: contacts, entries: entries, audit: audit, db: db}
}

type Report struct {
	ContactID     uuid.UUID       `json:"contact_id"`
	Score         decimal.Decimal `json:"score"`
	Grade         Grade           `json:"grade"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalPayments decimal.Decimal `json:"total_payments"`
	CurrentDebt   decimal.Decimal `json:"current_debt"`
}

func (s *Service) CalculateCreditScore(ctx context.Context, contactID uuid.UUID) (*Report, error) {
	contact, err := s.contacts.GetByID(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("CalculateCreditScore: %w", err)
	}

	totals, err := s.entries.Totals(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("CalculateCreditScore: %w", err)
	}

	score, grade := Score(contact.WalletBalance, totals.TotalDebit)
	return &Report{
		ContactID:     contactID,
		Score:         score,
		Grade:         grade,
		WalletBalance: contact.WalletBalance,
		TotalSales:    totals.TotalDebit,
		TotalPayments: totals.TotalCredit,
		CurrentDebt:   decimal.Max(decimal.Zero, contact.WalletBalance.Neg()),
	}, nil
}

type RecordEntryRequest struct {
	ContactID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description *string
}

// RecordCustomerEntry stores a pending sale (debit) or payment (credit)
// against a contact.
func (s *Service) RecordCustomerEntry(ctx context.Context, req RecordEntryRequest) (*domain.CustomerLedgerEntry, error) {
	if req.Debit.IsNegative() || req.Credit.IsNegative() {
		return nil, fmt.Errorf("RecordCustomerEntry: %w", domain.Invalid("amounts must not be negative"))
	}
	if !req.Debit.IsPositive() && !req.Credit.IsPositive() {
		return nil, fmt.Errorf("RecordCustomerEntry: %w", domain.Invalid("debit or credit is required"))
	}

	if _, err := s.contacts.GetByID(ctx, req.ContactID); err != nil {
		return nil, fmt.Errorf("RecordCustomerEntry: %w", err)
	}

	e := &domain.CustomerLedgerEntry{
		ID:          uuid.New(),
		ContactID:   req.ContactID,
		Debit:       req.Debit,
		Credit:      req.Credit,
		Status:      domain.CustomerEntryPending,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("RecordCustomerEntry: %w", err)
	}
	return e, nil
}

// ConfirmCustomerEntry marks a pending entry as reconciled by userID. A
// second confirmation fails with domain.ErrAlreadyConfirmed.
func (s *Service) ConfirmCustomerEntry(ctx context.Context, entryID, userID uuid.UUID) (*domain.CustomerLedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ConfirmCustomerEntry: begin tx: %w", err)
	}
	defer tx.Rollback()

	e, err := s.entries.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("ConfirmCustomerEntry: %w", err)
	}
	if e.Status == domain.CustomerEntryConfirmed {
		return nil, fmt.Errorf("ConfirmCustomerEntry: %w", domain.ErrAlreadyConfirmed)
	}

	now := time.Now().UTC()
	if err := s.entries.Confirm(ctx, tx, entryID, userID, now); err != nil {
		return nil, fmt.Errorf("ConfirmCustomerEntry: %w", err)
	}

	details, _ := json.Marshal(map[string]any{"contact_id": e.ContactID})
	if err := s.audit.Append(ctx, tx, &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     domain.AuditActionConfirmEntry,
		EntityType: "customer_ledger_entry",
		EntityID:   &e.ID,
		Details:    details,
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("ConfirmCustomerEntry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ConfirmCustomerEntry: commit: %w", err)
	}

	e.Status = domain.CustomerEntryConfirmed
	e.ReconciledBy = &userID
	e.ReconciledAt = &now
	logging.FromContext(ctx).Info("customer entry confirmed", "entry_id", e.ID, "contact_id", e.ContactID)
	return e, nil
}

package reconcile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/auth"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

const (
	suspenseName = "Suspense"

	// CorrectionDescription marks entries written by the repair pass.
	CorrectionDescription = "[SYSTEM CORRECTION] suspense balancing entry"
)

type accountRepo interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	CreateIfAbsent(ctx context.Context, q repository.Querier, account *domain.Account) (*domain.Account, bool, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	TotalsByAccount(ctx context.Context, q repository.Querier, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
	UnbalancedGroups(ctx context.Context, q repository.Querier, tolerance decimal.Decimal) ([]repository.GroupTotals, error)
	NegativeForUpdate(ctx context.Context, tx *sql.Tx) ([]domain.LedgerEntry, error)
	FlipNegative(ctx context.Context, tx *sql.Tx, id uuid.UUID) (bool, error)
}

type auditRepo interface {
	Append(ctx context.Context, q repository.Querier, entry *domain.AuditLog) error
}

type Service struct {
	accounts         accountRepo
	ledger           ledgerRepo
	audit            auditRepo
	db               *sql.DB
	suspenseCode     string
	suspenseCurrency domain.Currency
}

func NewService(accounts accountRepo, ledger ledgerRepo, audit auditRepo, db *sql.DB, suspenseCode string, suspenseCurrency domain.Currency) *Service {
	return &Service{
		accounts:         accounts,
		ledger:           ledger,
		audit:            audit,
		db:               db,
		suspenseCode:     suspenseCode,
		suspenseCurrency: suspenseCurrency,
	}
}

// ItemError records a failure on one account, transaction or entry without
// aborting the rest of the run.
type ItemError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

type BalanceDrift struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Code       string          `json:"code"`
	Stored     decimal.Decimal `json:"stored"`
	Recomputed decimal.Decimal `json:"recomputed"`
}

type ReconcileReport struct {
	RunID      uuid.UUID      `json:"run_id"`
	Checked    int            `json:"checked"`
	Drifts     []BalanceDrift `json:"drifts"`
	Errors     []ItemError    `json:"errors"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

type Correction struct {
	TransactionID uuid.UUID        `json:"transaction_id"`
	EntryID       uuid.UUID        `json:"entry_id"`
	Direction     domain.Direction `json:"direction"`
	Amount        decimal.Decimal  `json:"amount"`
}

type RepairReport struct {
	RunID             uuid.UUID    `json:"run_id"`
	SuspenseAccountID uuid.UUID    `json:"suspense_account_id"`
	Corrections       []Correction `json:"corrections"`
	Errors            []ItemError  `json:"errors"`
	StartedAt         time.Time    `json:"started_at"`
	FinishedAt        time.Time    `json:"finished_at"`
}

type NormalizeReport struct {
	RunID      uuid.UUID   `json:"run_id"`
	Normalized []uuid.UUID `json:"normalized"`
	Errors     []ItemError `json:"errors"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

func (s *Service) writeAudit(ctx context.Context, q repository.Querier, action string, runID uuid.UUID, summary any) error {
	details, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("writeAudit: %w", err)
	}
	if err := s.audit.Append(ctx, q, &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     auth.ActorFromContext(ctx),
		Action:     action,
		EntityType: "maintenance_run",
		EntityID:   &runID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("writeAudit: %w", err)
	}
	return nil
}

func itemError(id uuid.UUID, err error) ItemError {
	return ItemError{ID: id, Error: err.Error()}
}

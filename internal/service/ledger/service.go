package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

const (
	defaultEntriesLimit = 20
	maxEntriesLimit     = 100
)

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByCode(ctx context.Context, q repository.Querier, code string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	CreateIfAbsent(ctx context.Context, q repository.Querier, account *domain.Account) (*domain.Account, bool, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]domain.LedgerEntry, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type auditRepo interface {
	Append(ctx context.Context, q repository.Querier, entry *domain.AuditLog) error
}

type outboxRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error
}

type Service struct {
	accounts     accountRepo
	transactions transactionRepo
	ledger       ledgerRepo
	audit        auditRepo
	outbox       outboxRepo
	db           *sql.DB
}

func NewService(
	accounts accountRepo,
	transactions transactionRepo,
	ledger ledgerRepo,
	audit auditRepo,
	outbox outboxRepo,
	db *sql.DB,
) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		ledger:       ledger,
		audit:        audit,
		outbox:       outbox,
		db:           db,
	}
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return a, nil
}

func (s *Service) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	a, err := s.accounts.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, fmt.Errorf("GetAccountByCode: %w", err)
	}
	return a, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// GetTransaction returns the transaction with its entries attached.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}

	entries, err := s.ledger.GetByTransactionID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	t.Entries = entries
	return t, nil
}

func (s *Service) ListAccountEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("ListAccountEntries: %w", err)
	}

	limit, offset = clampPage(limit, offset)
	entries, total, err := s.ledger.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAccountEntries: %w", err)
	}
	return entries, total, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultEntriesLimit
	}
	if limit > maxEntriesLimit {
		limit = maxEntriesLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

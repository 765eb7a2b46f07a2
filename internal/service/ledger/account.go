package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
)

type AccountRequest struct {
	Code     string
	Name     string
	Type     domain.AccountType
	Currency domain.Currency
	IsSystem bool
	ActorID  uuid.UUID
}

func (r *AccountRequest) normalize() error {
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
	if r.Code == "" {
		return domain.Invalid("account code is required")
	}
	if r.Name == "" {
		return domain.Invalid("account name is required")
	}
	if !r.Type.IsValid() {
		return domain.Invalid("unknown account type %q", r.Type)
	}
	if r.Currency == "" {
		r.Currency = domain.CurrencyNGN
	}
	if !r.Currency.IsValid() {
		return domain.Invalid("unsupported currency %q", r.Currency)
	}
	return nil
}

func (r AccountRequest) account() *domain.Account {
	return &domain.Account{
		ID:        uuid.New(),
		Code:      r.Code,
		Name:      r.Name,
		Type:      r.Type,
		Balance:   decimal.Zero,
		Currency:  r.Currency,
		IsSystem:  r.IsSystem,
		CreatedAt: time.Now().UTC(),
	}
}

// CreateAccount fails with domain.ErrDuplicate when the code is taken.
func (s *Service) CreateAccount(ctx context.Context, req AccountRequest) (*domain.Account, error) {
	if err := req.normalize(); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	a := req.account()
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	s.recordAccountCreated(ctx, a, req.ActorID)
	logging.FromContext(ctx).Info("account created", "account_id", a.ID, "code", a.Code, "type", a.Type)
	return a, nil
}

// EnsureAccount returns the account with req.Code, creating it first if it
// does not exist. Concurrent callers all receive the same row.
func (s *Service) EnsureAccount(ctx context.Context, req AccountRequest) (*domain.Account, error) {
	if err := req.normalize(); err != nil {
		return nil, fmt.Errorf("EnsureAccount: %w", err)
	}

	a, created, err := s.accounts.CreateIfAbsent(ctx, nil, req.account())
	if err != nil {
		return nil, fmt.Errorf("EnsureAccount: %w", err)
	}
	if created {
		s.recordAccountCreated(ctx, a, req.ActorID)
		logging.FromContext(ctx).Info("account created on demand", "account_id", a.ID, "code", a.Code)
	}
	return a, nil
}

func (s *Service) recordAccountCreated(ctx context.Context, a *domain.Account, actor uuid.UUID) {
	if actor == uuid.Nil {
		actor = domain.SystemUserID
	}
	details, _ := json.Marshal(map[string]any{"code": a.Code, "type": a.Type, "currency": a.Currency})
	entry := &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     actor,
		Action:     domain.AuditActionCreateAccount,
		EntityType: "account",
		EntityID:   &a.ID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.Append(ctx, nil, entry); err != nil {
		logging.FromContext(ctx).Error("failed to append audit log", "account_id", a.ID, "error", err)
	}
}

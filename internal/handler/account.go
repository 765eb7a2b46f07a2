package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/auth"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/service/ledger"
)

type accountService interface {
	CreateAccount(ctx context.Context, req ledger.AccountRequest) (*domain.Account, error)
	EnsureAccount(ctx context.Context, req ledger.AccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListAccountEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

func (r accountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Code == "" {
		errs = append(errs, FieldError{Field: "code", Message: "required"})
	}
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.AccountType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be ASSET, LIABILITY, EQUITY, INCOME, or EXPENSE"})
	}
	if r.Currency != "" && !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be NGN, USD, EUR, or GBP"})
	}
	return errs
}

func (r accountRequest) toService(ctx context.Context) ledger.AccountRequest {
	return ledger.AccountRequest{
		Code:     r.Code,
		Name:     r.Name,
		Type:     domain.AccountType(r.Type),
		Currency: domain.Currency(r.Currency),
		ActorID:  auth.ActorFromContext(ctx),
	}
}

type accountDTO struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IsSystem  bool            `json:"is_system"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		Currency:  string(a.Currency),
		IsSystem:  a.IsSystem,
		CreatedAt: a.CreatedAt,
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusCreated, h.accounts.CreateAccount)
}

// Ensure is the create-or-get variant of Create; it answers 200 either way.
func (h *AccountHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusOK, h.accounts.EnsureAccount)
}

func (h *AccountHandler) write(w http.ResponseWriter, r *http.Request, status int, fn func(context.Context, ledger.AccountRequest) (*domain.Account, error)) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	account, err := fn(r.Context(), req.toService(r.Context()))
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to write account", "code", req.Code, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, status, toAccountDTO(account))
}

// List returns the chart of accounts, or the single account named by ?code=.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		account, err := h.accounts.GetAccountByCode(r.Context(), code)
		if err != nil {
			RespondDomainError(w, err)
			return
		}
		RespondSuccess(w, http.StatusOK, []accountDTO{toAccountDTO(account)})
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

type entriesPage struct {
	Entries []entryDTO `json:"entries"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

func (h *AccountHandler) Entries(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	entries, total, err := h.accounts.ListAccountEntries(r.Context(), id, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]entryDTO, len(entries))
	for i := range entries {
		dtos[i] = toEntryDTO(&entries[i])
	}

	RespondSuccess(w, http.StatusOK, entriesPage{Entries: dtos, Total: total, Limit: limit, Offset: offset})
}

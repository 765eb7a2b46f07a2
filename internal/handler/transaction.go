package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/auth"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/service/ledger"
)

type transactionService interface {
	PostTransaction(ctx context.Context, req ledger.PostTransactionRequest) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

type TransactionHandler struct {
	transactions transactionService
}

func NewTransactionHandler(transactions transactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type entryRequest struct {
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description *string         `json:"description"`
}

type postTransactionRequest struct {
	Description string         `json:"description"`
	Date        string         `json:"date"`
	Entries     []entryRequest `json:"entries"`
}

func (r postTransactionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	if r.Date != "" {
		if _, err := parseDate(r.Date); err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "must be YYYY-MM-DD or RFC 3339"})
		}
	}
	if len(r.Entries) < 2 {
		errs = append(errs, FieldError{Field: "entries", Message: "at least two entries required"})
	}
	for i, e := range r.Entries {
		if _, err := uuid.Parse(e.AccountID); err != nil {
			errs = append(errs, FieldError{Field: fmt.Sprintf("entries[%d].account_id", i), Message: "must be a valid UUID"})
		}
	}
	return errs
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type entryDTO struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     string          `json:"direction"`
	Description   *string         `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toEntryDTO(e *domain.LedgerEntry) entryDTO {
	return entryDTO{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		AccountID:     e.AccountID,
		Amount:        e.Amount,
		Direction:     string(e.Direction),
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

type transactionDTO struct {
	ID          uuid.UUID  `json:"id"`
	Description string     `json:"description"`
	OccurredAt  time.Time  `json:"occurred_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Entries     []entryDTO `json:"entries"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		Description: t.Description,
		OccurredAt:  t.OccurredAt,
		CreatedAt:   t.CreatedAt,
		Entries:     make([]entryDTO, len(t.Entries)),
	}
	for i := range t.Entries {
		dto.Entries[i] = toEntryDTO(&t.Entries[i])
	}
	return dto
}

func (h *TransactionHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req postTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	svcReq := ledger.PostTransactionRequest{
		Description: req.Description,
		Entries:     make([]ledger.EntryInput, len(req.Entries)),
		ActorID:     auth.ActorFromContext(r.Context()),
	}
	if req.Date != "" {
		svcReq.Date, _ = parseDate(req.Date)
	}
	for i, e := range req.Entries {
		svcReq.Entries[i] = ledger.EntryInput{
			AccountID:   uuid.MustParse(e.AccountID),
			Debit:       e.Debit,
			Credit:      e.Credit,
			Description: e.Description,
		}
	}

	t, err := h.transactions.PostTransaction(r.Context(), svcReq)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction rejected", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	t, err := h.transactions.GetTransaction(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

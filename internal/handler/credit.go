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
	"github.com/josh-kwaku/bizledger/internal/service/credit"
)

type creditService interface {
	CalculateCreditScore(ctx context.Context, contactID uuid.UUID) (*credit.Report, error)
	RecordCustomerEntry(ctx context.Context, req credit.RecordEntryRequest) (*domain.CustomerLedgerEntry, error)
	ConfirmCustomerEntry(ctx context.Context, entryID, userID uuid.UUID) (*domain.CustomerLedgerEntry, error)
}

type CreditHandler struct {
	credit creditService
}

func NewCreditHandler(credit creditService) *CreditHandler {
	return &CreditHandler{credit: credit}
}

type customerEntryDTO struct {
	ID           uuid.UUID       `json:"id"`
	ContactID    uuid.UUID       `json:"contact_id"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	Status       string          `json:"status"`
	Description  *string         `json:"description"`
	ReconciledBy *uuid.UUID      `json:"reconciled_by"`
	ReconciledAt *time.Time      `json:"reconciled_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toCustomerEntryDTO(e *domain.CustomerLedgerEntry) customerEntryDTO {
	return customerEntryDTO{
		ID:           e.ID,
		ContactID:    e.ContactID,
		Debit:        e.Debit,
		Credit:       e.Credit,
		Status:       string(e.Status),
		Description:  e.Description,
		ReconciledBy: e.ReconciledBy,
		ReconciledAt: e.ReconciledAt,
		CreatedAt:    e.CreatedAt,
	}
}

func (h *CreditHandler) Score(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	report, err := h.credit.CalculateCreditScore(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, report)
}

type recordEntryRequest struct {
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description *string         `json:"description"`
}

func (r recordEntryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Debit.IsNegative() {
		errs = append(errs, FieldError{Field: "debit", Message: "must not be negative"})
	}
	if r.Credit.IsNegative() {
		errs = append(errs, FieldError{Field: "credit", Message: "must not be negative"})
	}
	return errs
}

func (h *CreditHandler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req recordEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.credit.RecordCustomerEntry(r.Context(), credit.RecordEntryRequest{
		ContactID:   id,
		Debit:       req.Debit,
		Credit:      req.Credit,
		Description: req.Description,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toCustomerEntryDTO(entry))
}

func (h *CreditHandler) ConfirmEntry(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entry, err := h.credit.ConfirmCustomerEntry(r.Context(), id, auth.ActorFromContext(r.Context()))
	if err != nil {
		logging.FromContext(r.Context()).Warn("confirm customer entry failed", "entry_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCustomerEntryDTO(entry))
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/service/loyalty"
)

type loyaltyService interface {
	EarnPoints(ctx context.Context, req loyalty.EarnRequest) (*loyalty.Result, error)
	RedeemPoints(ctx context.Context, req loyalty.RedeemRequest) (*loyalty.Result, error)
	GetBalance(ctx context.Context, customerID uuid.UUID) (*domain.LoyaltyBalance, error)
}

type LoyaltyHandler struct {
	loyalty loyaltyService
}

func NewLoyaltyHandler(loyalty loyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{loyalty: loyalty}
}

type loyaltyTransactionDTO struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Points    int64           `json:"points"`
	Value     decimal.Decimal `json:"value"`
	SaleID    *uuid.UUID      `json:"sale_id"`
	OutletID  uuid.UUID       `json:"outlet_id"`
	CreatedAt time.Time       `json:"created_at"`
}

type loyaltyResultDTO struct {
	CustomerID  uuid.UUID              `json:"customer_id"`
	Balance     int64                  `json:"balance"`
	Transaction *loyaltyTransactionDTO `json:"transaction"`
}

func toLoyaltyResultDTO(customerID uuid.UUID, res *loyalty.Result) loyaltyResultDTO {
	dto := loyaltyResultDTO{CustomerID: customerID, Balance: res.Balance}
	if lt := res.Transaction; lt != nil {
		dto.Transaction = &loyaltyTransactionDTO{
			ID:        lt.ID,
			Kind:      string(lt.Kind),
			Points:    lt.Points,
			Value:     lt.Value,
			SaleID:    lt.SaleID,
			OutletID:  lt.OutletID,
			CreatedAt: lt.CreatedAt,
		}
	}
	return dto
}

type earnRequest struct {
	SaleID     string          `json:"sale_id"`
	CustomerID string          `json:"customer_id"`
	OutletID   string          `json:"outlet_id"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

func (r earnRequest) Validate() []FieldError {
	var errs []FieldError
	errs = appendUUIDError(errs, "sale_id", r.SaleID)
	errs = appendUUIDError(errs, "customer_id", r.CustomerID)
	errs = appendUUIDError(errs, "outlet_id", r.OutletID)
	if !r.AmountPaid.IsPositive() {
		errs = append(errs, FieldError{Field: "amount_paid", Message: "must be positive"})
	}
	return errs
}

type redeemRequest struct {
	CustomerID     string `json:"customer_id"`
	OutletID       string `json:"outlet_id"`
	PointsToRedeem int64  `json:"points_to_redeem"`
	SaleID         string `json:"sale_id"`
}

func (r redeemRequest) Validate() []FieldError {
	var errs []FieldError
	errs = appendUUIDError(errs, "customer_id", r.CustomerID)
	errs = appendUUIDError(errs, "outlet_id", r.OutletID)
	if r.SaleID != "" {
		errs = appendUUIDError(errs, "sale_id", r.SaleID)
	}
	if r.PointsToRedeem <= 0 {
		errs = append(errs, FieldError{Field: "points_to_redeem", Message: "must be positive"})
	}
	return errs
}

func appendUUIDError(errs []FieldError, field, value string) []FieldError {
	if _, err := uuid.Parse(value); err != nil {
		return append(errs, FieldError{Field: field, Message: "must be a valid UUID"})
	}
	return errs
}

func (h *LoyaltyHandler) Earn(w http.ResponseWriter, r *http.Request) {
	var req earnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customerID := uuid.MustParse(req.CustomerID)
	res, err := h.loyalty.EarnPoints(r.Context(), loyalty.EarnRequest{
		SaleID:     uuid.MustParse(req.SaleID),
		CustomerID: customerID,
		OutletID:   uuid.MustParse(req.OutletID),
		AmountPaid: req.AmountPaid,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Transaction == nil {
		status = http.StatusOK
	}
	RespondSuccess(w, status, toLoyaltyResultDTO(customerID, res))
}

func (h *LoyaltyHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	customerID := uuid.MustParse(req.CustomerID)
	svcReq := loyalty.RedeemRequest{
		CustomerID:     customerID,
		OutletID:       uuid.MustParse(req.OutletID),
		PointsToRedeem: req.PointsToRedeem,
	}
	if req.SaleID != "" {
		saleID := uuid.MustParse(req.SaleID)
		svcReq.SaleID = &saleID
	}

	res, err := h.loyalty.RedeemPoints(r.Context(), svcReq)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toLoyaltyResultDTO(customerID, res))
}

type loyaltyBalanceDTO struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Points     int64     `json:"points"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (h *LoyaltyHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathID(r, "customerId")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	balance, err := h.loyalty.GetBalance(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, loyaltyBalanceDTO{
		CustomerID: id,
		Points:     balance.Points,
		UpdatedAt:  balance.UpdatedAt,
	})
}

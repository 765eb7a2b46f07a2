package loyalty

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
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

type outletRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Outlet, error)
}

type contactRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
}

type loyaltyRepo interface {
	GetBalance(ctx context.Context, customerID uuid.UUID) (*domain.LoyaltyBalance, error)
	GetBalanceForUpdate(ctx context.Context, tx *sql.Tx, customerID uuid.UUID) (*domain.LoyaltyBalance, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, customerID uuid.UUID, points, newVersion int64) error
	CreateTransaction(ctx context.Context, tx *sql.Tx, lt *domain.LoyaltyTransaction) error
}

type outboxRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error
}

type auditRepo interface {
	Append(ctx context.Context, q repository.Querier, entry *domain.AuditLog) error
}

type Service struct {
	outlets  outletRepo
	contacts contactRepo
	loyalty  loyaltyRepo
	outbox   outboxRepo
	audit    auditRepo
	db       *sql.DB
}

func NewService(
	outlets outletRepo,
	contacts contactRepo,
	loyalty loyaltyRepo,
	outbox outboxRepo,
	audit auditRepo,
	db *sql.DB,
) *Service {
	return &Service{
		outlets:  outlets,
		contacts: contacts,
		loyalty:  loyalty,
		outbox:   outbox,
		audit:    audit,
		db:       db,
	}
}

// Result is the outcome of an earn or redeem call. Transaction is nil when
// nothing was written.
type Result struct {
	Transaction *domain.LoyaltyTransaction
	Balance     int64
}

type EarnRequest struct {
	SaleID     uuid.UUID
	CustomerID uuid.UUID
	OutletID   uuid.UUID
	AmountPaid decimal.Decimal
}

// EarnPoints credits floor(amountPaid * earning rate) points for a sale. A
// sale earns at most once; a repeat returns domain.ErrDuplicate.
func (s *Service) EarnPoints(ctx context.Context, req EarnRequest) (*Result, error) {
	if !req.AmountPaid.IsPositive() {
		return nil, fmt.Errorf("EarnPoints: %w", domain.Invalid("amount paid must be positive"))
	}
	if req.SaleID == uuid.Nil {
		return nil, fmt.Errorf("EarnPoints: %w", domain.Invalid("sale id is required"))
	}

	outlet, err := s.resolve(ctx, req.OutletID, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("EarnPoints: %w", err)
	}

	points := PointsFor(req.AmountPaid, outlet.LoyaltyEarningRate)
	if points <= 0 {
		current, err := s.loyalty.GetBalance(ctx, req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("EarnPoints: %w", err)
		}
		return &Result{Balance: current.Points}, nil
	}

	saleID := req.SaleID
	lt := &domain.LoyaltyTransaction{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		OutletID:   req.OutletID,
		SaleID:     &saleID,
		Kind:       domain.LoyaltyKindEarn,
		Points:     points,
		Value:      decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}

	balance, err := s.apply(ctx, lt, domain.EventPointsEarned)
	if err != nil {
		return nil, fmt.Errorf("EarnPoints: %w", err)
	}

	logging.FromContext(ctx).Info("loyalty points earned",
		"customer_id", req.CustomerID,
		"sale_id", req.SaleID,
		"points", points,
		"balance", balance,
	)
	return &Result{Transaction: lt, Balance: balance}, nil
}

type RedeemRequest struct {
	CustomerID     uuid.UUID
	OutletID       uuid.UUID
	PointsToRedeem int64
	SaleID         *uuid.UUID
}

// RedeemPoints spends points at the outlet's redemption rate. The returned
// transaction's Value is the currency amount the points are worth.
func (s *Service) RedeemPoints(ctx context.Context, req RedeemRequest) (*Result, error) {
	if req.PointsToRedeem <= 0 {
		return nil, fmt.Errorf("RedeemPoints: %w", domain.Invalid("points to redeem must be positive"))
	}

	outlet, err := s.resolve(ctx, req.OutletID, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("RedeemPoints: %w", err)
	}

	lt := &domain.LoyaltyTransaction{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		OutletID:   req.OutletID,
		SaleID:     req.SaleID,
		Kind:       domain.LoyaltyKindRedeem,
		Points:     req.PointsToRedeem,
		Value:      RedemptionValue(req.PointsToRedeem, outlet.LoyaltyRedemptionRate),
		CreatedAt:  time.Now().UTC(),
	}

	balance, err := s.apply(ctx, lt, domain.EventPointsRedeemed)
	if err != nil {
		return nil, fmt.Errorf("RedeemPoints: %w", err)
	}

	logging.FromContext(ctx).Info("loyalty points redeemed",
		"customer_id", req.CustomerID,
		"points", req.PointsToRedeem,
		"value", lt.Value,
		"balance", balance,
	)
	return &Result{Transaction: lt, Balance: balance}, nil
}

func (s *Service) GetBalance(ctx context.Context, customerID uuid.UUID) (*domain.LoyaltyBalance, error) {
	if _, err := s.contacts.GetByID(ctx, customerID); err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	b, err := s.loyalty.GetBalance(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return b, nil
}

func (s *Service) resolve(ctx context.Context, outletID, customerID uuid.UUID) (*domain.Outlet, error) {
	outlet, err := s.outlets.GetByID(ctx, outletID)
	if err != nil {
		return nil, fmt.Errorf("resolve: outlet: %w", err)
	}
	if _, err := s.contacts.GetByID(ctx, customerID); err != nil {
		return nil, fmt.Errorf("resolve: customer: %w", err)
	}
	return outlet, nil
}

type pointsEvent struct {
	TransactionID uuid.UUID          `json:"transaction_id"`
	CustomerID    uuid.UUID          `json:"customer_id"`
	OutletID      uuid.UUID          `json:"outlet_id"`
	SaleID        *uuid.UUID         `json:"sale_id,omitempty"`
	Kind          domain.LoyaltyKind `json:"kind"`
	Points        int64              `json:"points"`
	Value         decimal.Decimal    `json:"value"`
	Balance       int64              `json:"balance"`
}

// apply writes lt and moves the customer's balance in one transaction,
// returning the new balance.
func (s *Service) apply(ctx context.Context, lt *domain.LoyaltyTransaction, eventType domain.OutboxEventType) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("apply: begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.loyalty.GetBalanceForUpdate(ctx, tx, lt.CustomerID)
	if err != nil {
		return 0, fmt.Errorf("apply: %w", err)
	}

	next := current.Points + lt.Points
	if lt.Kind == domain.LoyaltyKindRedeem {
		if lt.Points > current.Points {
			return 0, fmt.Errorf("apply: have %d, want %d: %w", current.Points, lt.Points, domain.ErrInsufficientPoints)
		}
		next = current.Points - lt.Points
	}

	if err := s.loyalty.CreateTransaction(ctx, tx, lt); err != nil {
		return 0, fmt.Errorf("apply: %w", err)
	}
	if err := s.loyalty.UpdateBalance(ctx, tx, lt.CustomerID, next, current.Version+1); err != nil {
		return 0, fmt.Errorf("apply: %w", err)
	}

	payload, err := json.Marshal(pointsEvent{
		TransactionID: lt.ID,
		CustomerID:    lt.CustomerID,
		OutletID:      lt.OutletID,
		SaleID:        lt.SaleID,
		Kind:          lt.Kind,
		Points:        lt.Points,
		Value:         lt.Value,
		Balance:       next,
	})
	if err != nil {
		return 0, fmt.Errorf("apply: marshal event: %w", err)
	}
	if err := s.outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: lt.CustomerID,
		Payload:     payload,
		Status:      domain.OutboxStatusPending,
		CreatedAt:   lt.CreatedAt,
	}); err != nil {
		return 0, fmt.Errorf("apply: outbox: %w", err)
	}

	if lt.Kind == domain.LoyaltyKindRedeem {
		details, _ := json.Marshal(map[string]any{"points": lt.Points, "value": lt.Value})
		if err := s.audit.Append(ctx, tx, &domain.AuditLog{
			ID:         uuid.New(),
			UserID:     auth.ActorFromContext(ctx),
			Action:     domain.AuditActionRedeemPoints,
			EntityType: "loyalty_transaction",
			EntityID:   &lt.ID,
			Details:    details,
			CreatedAt:  lt.CreatedAt,
		}); err != nil {
			return 0, fmt.Errorf("apply: audit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("apply: commit: %w", err)
	}
	return next, nil
}

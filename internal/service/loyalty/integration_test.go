package loyalty_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
	"github.com/josh-kwaku/bizledger/internal/service/loyalty"
	"github.com/josh-kwaku/bizledger/internal/testutil"
)

func setupLoyaltyService(t *testing.T, db *sql.DB) *loyalty.Service {
	t.Helper()
	return loyalty.NewService(
		repository.NewOutletRepository(db),
		repository.NewContactRepository(db),
		repository.NewLoyaltyRepository(db),
		repository.NewOutboxRepository(db),
		repository.NewAuditRepository(db),
		db,
	)
}

func TestEarnPoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLoyaltyService(t, db)
	ctx := context.Background()

	outlet := testutil.SeedOutlet(t, db, "0.01", "0.5")
	customer := testutil.SeedContact(t, db, "Ada", "0")
	saleID := uuid.New()

	res, err := svc.EarnPoints(ctx, loyalty.EarnRequest{
		SaleID:     saleID,
		CustomerID: customer.ID,
		OutletID:   outlet.ID,
		AmountPaid: decimal.RequireFromString("1999.99"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, int64(19), res.Transaction.Points)
	assert.Equal(t, int64(19), res.Balance)
	assert.Equal(t, int64(19), testutil.GetLoyaltyPoints(t, db, customer.ID))
	assert.Equal(t, 1, testutil.CountRows(t, db, "outbox_events"))

	_, err = svc.EarnPoints(ctx, loyalty.EarnRequest{
		SaleID:     saleID,
		CustomerID: customer.ID,
		OutletID:   outlet.ID,
		AmountPaid: decimal.NewFromInt(500),
	})
	require.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, int64(19), testutil.GetLoyaltyPoints(t, db, customer.ID))
}

func TestEarnPoints_ZeroPointsWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLoyaltyService(t, db)

	outlet := testutil.SeedOutlet(t, db, "0.01", "0.5")
	customer := testutil.SeedContact(t, db, "Ada", "0")

	res, err := svc.EarnPoints(context.Background(), loyalty.EarnRequest{
		SaleID:     uuid.New(),
		CustomerID: customer.ID,
		OutletID:   outlet.ID,
		AmountPaid: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Transaction)
	assert.Equal(t, 0, testutil.CountRows(t, db, "loyalty_transactions"))
}

func TestEarnPoints_UnknownOutlet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLoyaltyService(t, db)

	customer := testutil.SeedContact(t, db, "Ada", "0")
	_, err := svc.EarnPoints(context.Background(), loyalty.EarnRequest{
		SaleID:     uuid.New(),
		CustomerID: customer.ID,
		OutletID:   uuid.New(),
		AmountPaid: decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeemPoints(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLoyaltyService(t, db)
	ctx := context.Background()

	outlet := testutil.SeedOutlet(t, db, "1", "0.5")
	customer := testutil.SeedContact(t, db, "Ada", "0")

	_, err := svc.EarnPoints(ctx, loyalty.EarnRequest{
		SaleID:     uuid.New(),
		CustomerID: customer.ID,
		OutletID:   outlet.ID,
		AmountPaid: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	res, err := svc.RedeemPoints(ctx, loyalty.RedeemRequest{
		CustomerID:     customer.ID,
		OutletID:       outlet.ID,
		PointsToRedeem: 150,
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(res.Transaction.Value))
	assert.Equal(t, int64(50), res.Balance)

	_, err = svc.RedeemPoints(ctx, loyalty.RedeemRequest{
		CustomerID:     customer.ID,
		OutletID:       outlet.ID,
		PointsToRedeem: 51,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientPoints)

	b, err := svc.GetBalance(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), b.Points)
}

func TestGetBalance_NoHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLoyaltyService(t, db)

	customer := testutil.SeedContact(t, db, "Ada", "0")
	b, err := svc.GetBalance(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Points)

	_, err = svc.GetBalance(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

package loyalty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

func TestPointsFor(t *testing.T) {
	tests := []struct {
		amount string
		rate   string
		want   int64
	}{
		{"1000", "0.01", 10},
		{"1999.99", "0.01", 19},
		{"50", "0.01", 0},
		{"250.50", "1", 250},
		{"10", "0", 0},
	}
	for _, tt := range tests {
		got := PointsFor(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate))
		assert.Equal(t, tt.want, got, "%s at %s", tt.amount, tt.rate)
	}
}

func TestRedemptionValue(t *testing.T) {
	got := RedemptionValue(150, decimal.RequireFromString("0.5"))
	assert.True(t, decimal.NewFromInt(75).Equal(got))
}

func TestEarnAndRedeem_RejectBadInputBeforeLookup(t *testing.T) {
	svc := &Service{}
	ctx := context.Background()

	_, err := svc.EarnPoints(ctx, EarnRequest{SaleID: uuid.New(), AmountPaid: decimal.Zero})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.EarnPoints(ctx, EarnRequest{AmountPaid: decimal.NewFromInt(10)})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RedeemPoints(ctx, RedeemRequest{PointsToRedeem: 0})
	require.ErrorIs(t, err, domain.ErrValidation)
}

package loyalty

import "github.com/shopspring/decimal"

// PointsFor converts an amount paid at an outlet into whole points, rounding
// down.
func PointsFor(amountPaid, earningRate decimal.Decimal) int64 {
	return amountPaid.Mul(earningRate).Floor().IntPart()
}

func RedemptionValue(points int64, redemptionRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(points).Mul(redemptionRate)
}

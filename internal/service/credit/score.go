package credit

import "github.com/shopspring/decimal"

type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

var (
	hundred = decimal.NewFromInt(100)
	// noHistoryScore applies to a customer in debt with no recorded sales.
	noHistoryScore = decimal.NewFromInt(50)
)

// Score rates a customer from 0 to 100. A non-negative wallet scores 100;
// otherwise the score falls with the share of sales still owed.
func Score(wallet, totalSales decimal.Decimal) (decimal.Decimal, Grade) {
	var score decimal.Decimal
	switch {
	case !wallet.IsNegative():
		score = hundred
	case totalSales.IsPositive():
		debt := wallet.Neg()
		score = decimal.Max(decimal.Zero, hundred.Sub(debt.Div(totalSales).Mul(hundred)))
	default:
		score = noHistoryScore
	}
	// Grade from the exact score so rounding never lifts a customer over a threshold.
	return score.Round(2), gradeFor(score)
}

func gradeFor(score decimal.Decimal) Grade {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return GradeA
	case score.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return GradeB
	case score.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return GradeC
	case score.GreaterThanOrEqual(decimal.NewFromInt(30)):
		return GradeD
	default:
		return GradeF
	}
}

package domain

import "github.com/shopspring/decimal"

// BalanceTolerance is the largest debit/credit difference still treated as
// balanced.
var BalanceTolerance = decimal.RequireFromString("0.01")

// WithinTolerance reports whether a and b differ by no more than
// BalanceTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(BalanceTolerance)
}

// BalanceDelta applies the normal-balance rule: movement on the normal side
// increases the balance, movement on the other side decreases it.
func BalanceDelta(t AccountType, amount decimal.Decimal, d Direction) decimal.Decimal {
	if d == t.NormalSide() {
		return amount
	}
	return amount.Neg()
}

// BalanceFromTotals derives an account balance from its debit and credit
// totals.
func BalanceFromTotals(t AccountType, debits, credits decimal.Decimal) decimal.Decimal {
	if t.NormalSide() == DirectionDebit {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

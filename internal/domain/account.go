package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyNGN Currency = "NGN"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyNGN:
		return true
	}
	return false
}

type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide is the direction that increases an account of this type.
func (t AccountType) NormalSide() Direction {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return DirectionDebit
	default:
		return DirectionCredit
	}
}

// Account.Balance is a cache of the account's ledger entries. Posting keeps it
// current incrementally; reconciliation recomputes it from the entries.
type Account struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	Currency  Currency
	Version   int64
	IsSystem  bool
	CreatedAt time.Time
}

// Delta returns the change to the account's balance caused by moving amount
// in direction d.
func (a *Account) Delta(amount decimal.Decimal, d Direction) decimal.Decimal {
	return BalanceDelta(a.Type, amount, d)
}

package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

const TestPassword = "password123"

func SeedUser(t *testing.T, db *sql.DB, email, role string, permissions ...string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if permissions == nil {
		permissions = []string{}
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         email,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  permissions,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, permissions, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, pq.Array(u.Permissions), u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// SeedAccount inserts an NGN account with a cached balance and no entries.
func SeedAccount(t *testing.T, db *sql.DB, code string, accountType domain.AccountType, balance string) *domain.Account {
	t.Helper()
	return SeedAccountIn(t, db, code, accountType, balance, domain.CurrencyNGN)
}

func SeedAccountIn(t *testing.T, db *sql.DB, code string, accountType domain.AccountType, balance string, currency domain.Currency) *domain.Account {
	t.Helper()

	a := &domain.Account{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		Type:      accountType,
		Balance:   decimal.RequireFromString(balance),
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, code, name, type, balance, currency, version, is_system, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, FALSE, $7)`,
		a.ID, a.Code, a.Name, a.Type, a.Balance, a.Currency, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed account %s: %v", code, err)
	}
	return a
}

// RawEntry is a ledger row written straight to the table, bypassing posting
// validation. Amount may be negative.
type RawEntry struct {
	AccountID uuid.UUID
	Amount    string
	Direction domain.Direction
}

// InsertRawTransaction writes a transaction and its entries without touching
// cached account balances.
func InsertRawTransaction(t *testing.T, db *sql.DB, description string, entries ...RawEntry) uuid.UUID {
	t.Helper()
	return InsertRawTransactionWithID(t, db, uuid.New(), description, entries...)
}

// InsertRawTransactionWithID is InsertRawTransaction with a caller-chosen id,
// for tests that depend on transaction_id ordering.
func InsertRawTransactionWithID(t *testing.T, db *sql.DB, txID uuid.UUID, description string, entries ...RawEntry) uuid.UUID {
	t.Helper()

	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO transactions (id, description, occurred_at, created_at) VALUES ($1, $2, $3, $3)`,
		txID, description, now,
	)
	if err != nil {
		t.Fatalf("insert raw transaction: %v", err)
	}

	for _, e := range entries {
		_, err := db.Exec(
			`INSERT INTO ledger_entries (id, transaction_id, account_id, amount, direction, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), txID, e.AccountID, e.Amount, e.Direction, now,
		)
		if err != nil {
			t.Fatalf("insert raw entry: %v", err)
		}
	}
	return txID
}

func SetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID, balance string) {
	t.Helper()

	if _, err := db.Exec(`UPDATE accounts SET balance = $1 WHERE id = $2`, balance, accountID); err != nil {
		t.Fatalf("set account balance %s: %v", accountID, err)
	}
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE transaction_id = $1`, transactionID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for transaction %s: %v", transactionID, err)
	}
	return count
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + pq.QuoteIdentifier(table)).Scan(&count); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func SeedContact(t *testing.T, db *sql.DB, name, wallet string) *domain.Contact {
	t.Helper()

	c := &domain.Contact{
		ID:            uuid.New(),
		Name:          name,
		WalletBalance: decimal.RequireFromString(wallet),
		CreatedAt:     time.Now().UTC(),
	}
	if err := repository.NewContactRepository(db).Create(context.Background(), c); err != nil {
		t.Fatalf("seed contact %s: %v", name, err)
	}
	return c
}

func SeedCustomerEntry(t *testing.T, db *sql.DB, contactID uuid.UUID, debit, credit string, status domain.CustomerEntryStatus) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(
		`INSERT INTO customer_ledger_entries (id, contact_id, debit, credit, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		id, contactID, debit, credit, status,
	)
	if err != nil {
		t.Fatalf("seed customer entry: %v", err)
	}
	return id
}

func SeedOutlet(t *testing.T, db *sql.DB, earningRate, redemptionRate string) *domain.Outlet {
	t.Helper()

	o := &domain.Outlet{
		ID:                    uuid.New(),
		Name:                  "Main Street",
		LoyaltyEarningRate:    decimal.RequireFromString(earningRate),
		LoyaltyRedemptionRate: decimal.RequireFromString(redemptionRate),
		TaxRate:               decimal.Zero,
		CreatedAt:             time.Now().UTC(),
	}
	if err := repository.NewOutletRepository(db).Create(context.Background(), o); err != nil {
		t.Fatalf("seed outlet: %v", err)
	}
	return o
}

func GetLoyaltyPoints(t *testing.T, db *sql.DB, customerID uuid.UUID) int64 {
	t.Helper()

	var points int64
	err := db.QueryRow(`SELECT COALESCE((SELECT points FROM loyalty_balances WHERE customer_id = $1), 0)`, customerID).Scan(&points)
	if err != nil {
		t.Fatalf("get loyalty points %s: %v", customerID, err)
	}
	return points
}

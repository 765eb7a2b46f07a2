package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
	"github.com/josh-kwaku/bizledger/internal/service/ledger"
	"github.com/josh-kwaku/bizledger/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewAuditRepository(db),
		repository.NewOutboxRepository(db),
		db,
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPostTransaction_RentExample(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	cash := testutil.SeedAccount(t, db, "1000", domain.AccountTypeAsset, "0")
	rent := testutil.SeedAccount(t, db, "6100", domain.AccountTypeExpense, "0")

	txn, err := svc.PostTransaction(ctx, ledger.PostTransactionRequest{
		Description: "Office rent",
		Entries: []ledger.EntryInput{
			{AccountID: cash.ID, Credit: dec("50000")},
			{AccountID: rent.ID, Debit: dec("50000")},
		},
	})
	require.NoError(t, err)

	assert.True(t, dec("-50000").Equal(testutil.GetAccountBalance(t, db, cash.ID)))
	assert.True(t, dec("50000").Equal(testutil.GetAccountBalance(t, db, rent.ID)))
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, db, txn.ID))
	assert.Equal(t, 1, testutil.CountRows(t, db, "outbox_events"))
	assert.Equal(t, 1, testutil.CountRows(t, db, "audit_logs"))

	trail, err := repository.NewAuditRepository(db).ListByEntity(ctx, "transaction", txn.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditActionPostTransaction, trail[0].Action)
	assert.Equal(t, domain.SystemUserID, trail[0].UserID)

	got, err := svc.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office rent", got.Description)
	assert.Len(t, got.Entries, 2)
}

func TestPostTransaction_CreditNormalAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	cash := testutil.SeedAccount(t, db, "1000", domain.AccountTypeAsset, "0")
	sales := testutil.SeedAccount(t, db, "4000", domain.AccountTypeIncome, "0")
	loan := testutil.SeedAccount(t, db, "2100", domain.AccountTypeLiability, "0")

	_, err := svc.PostTransaction(context.Background(), ledger.PostTransactionRequest{
		Description: "Cash sale and loan drawdown",
		Entries: []ledger.EntryInput{
			{AccountID: cash.ID, Debit: dec("1500")},
			{AccountID: sales.ID, Credit: dec("500")},
			{AccountID: loan.ID, Credit: dec("1000")},
		},
	})
	require.NoError(t, err)

	assert.True(t, dec("1500").Equal(testutil.GetAccountBalance(t, db, cash.ID)))
	assert.True(t, dec("500").Equal(testutil.GetAccountBalance(t, db, sales.ID)))
	assert.True(t, dec("1000").Equal(testutil.GetAccountBalance(t, db, loan.ID)))
}

func TestPostTransaction_ImbalanceWritesNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	cash := testutil.SeedAccount(t, db, "1000", domain.AccountTypeAsset, "0")
	rent := testutil.SeedAccount(t, db, "6100", domain.AccountTypeExpense, "0")

	_, err := svc.PostTransaction(context.Background(), ledger.PostTransactionRequest{
		Description: "Lopsided",
		Entries: []ledger.EntryInput{
			{AccountID: rent.ID, Debit: dec("100")},
			{AccountID: cash.ID, Credit: dec("80")},
		},
	})
	require.ErrorIs(t, err, domain.ErrImbalance)

	assert.Equal(t, 0, testutil.CountRows(t, db, "transactions"))
	assert.Equal(t, 0, testutil.CountRows(t, db, "ledger_entries"))
	assert.True(t, testutil.GetAccountBalance(t, db, cash.ID).IsZero())
}

func TestPostTransaction_UnknownAccountRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	cash := testutil.SeedAccount(t, db, "1000", domain.AccountTypeAsset, "0")

	_, err := svc.PostTransaction(context.Background(), ledger.PostTransactionRequest{
		Description: "Ghost",
		Entries: []ledger.EntryInput{
			{AccountID: cash.ID, Debit: dec("10")},
			{AccountID: uuid.New(), Credit: dec("10")},
		},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, testutil.CountRows(t, db, "transactions"))
	assert.True(t, testutil.GetAccountBalance(t, db, cash.ID).IsZero())
}

func TestPostTransaction_ConcurrentPostingsKeepBalancesExact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	cash := testutil.SeedAccount(t, db, "1000", domain.AccountTypeAsset, "0")
	sales := testutil.SeedAccount(t, db, "4000", domain.AccountTypeIncome, "0")

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PostTransaction(context.Background(), ledger.PostTransactionRequest{
				Description: "Till sale",
				Entries: []ledger.EntryInput{
					{AccountID: cash.ID, Debit: dec("10.25")},
					{AccountID: sales.ID, Credit: dec("10.25")},
				},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, dec("205").Equal(testutil.GetAccountBalance(t, db, cash.ID)))
	assert.True(t, dec("205").Equal(testutil.GetAccountBalance(t, db, sales.ID)))
}

func TestEnsureAccount_IsStable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	req := ledger.AccountRequest{Code: "9999", Name: "Suspense", Type: domain.AccountTypeEquity, IsSystem: true}

	first, err := svc.EnsureAccount(ctx, req)
	require.NoError(t, err)
	second, err := svc.EnsureAccount(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsSystem)
	assert.Equal(t, 1, testutil.CountRows(t, db, "accounts"))
}

func TestCreateAccount_DuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	req := ledger.AccountRequest{Code: "1000", Name: "Cash", Type: domain.AccountTypeAsset}
	_, err := svc.CreateAccount(ctx, req)
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, req)
	require.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestListAccountEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	cash := testutil.SeedAccount(t, db, "1000", domain.AccountTypeAsset, "0")
	sales := testutil.SeedAccount(t, db, "4000", domain.AccountTypeIncome, "0")

	for range 3 {
		_, err := svc.PostTransaction(ctx, ledger.PostTransactionRequest{
			Description: "Sale",
			Entries: []ledger.EntryInput{
				{AccountID: cash.ID, Debit: dec("1")},
				{AccountID: sales.ID, Credit: dec("1")},
			},
		})
		require.NoError(t, err)
	}

	entries, total, err := svc.ListAccountEntries(ctx, cash.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, entries, 2)

	_, _, err = svc.ListAccountEntries(ctx, uuid.New(), 10, 0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

func TestAccountUpdateBalance_VersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET balance = $1, version = $2 WHERE id = $3 AND version = $4`)).
		WithArgs(sqlmock.AnyArg(), int64(3), id, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	repo := NewAccountRepository(db)
	err = repo.UpdateBalance(context.Background(), tx, id, decimal.NewFromInt(10), 3)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountCreateIfAbsent_ReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	existingID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (code) DO NOTHING`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM accounts WHERE code = $1`)).
		WithArgs("9999").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "type", "balance", "currency", "version", "is_system", "created_at"}).
			AddRow(existingID.String(), "9999", "Suspense", "EQUITY", "12.5000", "NGN", 4, true, now))

	repo := NewAccountRepository(db)
	got, created, err := repo.CreateIfAbsent(context.Background(), nil, &domain.Account{
		ID:   uuid.New(),
		Code: "9999",
		Name: "Suspense",
		Type: domain.AccountTypeEquity,
	})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, existingID, got.ID)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.Balance))
	assert.Equal(t, int64(4), got.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountCreate_DuplicateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO accounts`)).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	repo := NewAccountRepository(db)
	err = repo.Create(context.Background(), &domain.Account{ID: uuid.New(), Code: "1000"})
	require.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLedgerFlipNegative(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND amount < 0`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND amount < 0`)).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	repo := NewLedgerRepository(db)
	flipped, err := repo.FlipNegative(context.Background(), tx, id)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.FlipNegative(context.Background(), tx, id)
	require.NoError(t, err)
	assert.False(t, flipped)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerUnbalancedGroups(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	txID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY e.transaction_id`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "currency", "debits", "credits"}).
			AddRow(txID.String(), "USD", "100.0000", "80.0000"))

	repo := NewLedgerRepository(db)
	groups, err := repo.UnbalancedGroups(context.Background(), nil, domain.BalanceTolerance)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, txID, groups[0].TransactionID)
	assert.Equal(t, domain.CurrencyUSD, groups[0].Currency)
	assert.True(t, decimal.NewFromInt(100).Equal(groups[0].Debits))
	assert.True(t, decimal.NewFromInt(80).Equal(groups[0].Credits))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSavepoint(t *testing.T) {
	t.Run("releases on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SAVEPOINT "grp_1"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`RELEASE SAVEPOINT "grp_1"`)).WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.Begin()
		require.NoError(t, err)

		err = WithSavepoint(context.Background(), tx, "grp_1", func() error { return nil })
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns the original error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`SAVEPOINT "grp_2"`)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`ROLLBACK TO SAVEPOINT "grp_2"`)).WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.Begin()
		require.NoError(t, err)

		err = WithSavepoint(context.Background(), tx, "grp_2", func() error { return boom })
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTryLockSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT pg_try_advisory_lock($1)`)).
		WithArgs(ReconcileRunLock).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	conn, err := db.Conn(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	ok, err := TryLockSession(context.Background(), conn, ReconcileRunLock)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoyaltyCreateTransaction_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO loyalty_transactions`)).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	tx, err := db.Begin()
	require.NoError(t, err)

	repo := NewLoyaltyRepository(db)
	err = repo.CreateTransaction(context.Background(), tx, &domain.LoyaltyTransaction{ID: uuid.New(), Kind: domain.LoyaltyKindEarn})
	require.ErrorIs(t, err, domain.ErrDuplicate)
}

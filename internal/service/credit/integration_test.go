package credit_test

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
	"github.com/josh-kwaku/bizledger/internal/service/credit"
	"github.com/josh-kwaku/bizledger/internal/testutil"
)

func setupCreditService(t *testing.T, db *sql.DB) *credit.Service {
	t.Helper()
	return credit.NewService(
		repository.NewContactRepository(db),
		repository.NewCustomerLedgerRepository(db),
		repository.NewAuditRepository(db),
		db,
	)
}

func TestCalculateCreditScore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db)
	ctx := context.Background()

	contact := testutil.SeedContact(t, db, "Ada", "-500")
	testutil.SeedCustomerEntry(t, db, contact.ID, "600", "0", domain.CustomerEntryConfirmed)
	testutil.SeedCustomerEntry(t, db, contact.ID, "400", "0", domain.CustomerEntryPending)
	testutil.SeedCustomerEntry(t, db, contact.ID, "0", "500", domain.CustomerEntryConfirmed)

	report, err := svc.CalculateCreditScore(ctx, contact.ID)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(50).Equal(report.Score))
	assert.Equal(t, credit.GradeC, report.Grade)
	assert.True(t, decimal.NewFromInt(1000).Equal(report.TotalSales))
	assert.True(t, decimal.NewFromInt(500).Equal(report.TotalPayments))
	assert.True(t, decimal.NewFromInt(500).Equal(report.CurrentDebt))
}

func TestCalculateCreditScore_UnknownContact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db)

	_, err := svc.CalculateCreditScore(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirmCustomerEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db)
	ctx := context.Background()

	contact := testutil.SeedContact(t, db, "Ada", "0")
	entry, err := svc.RecordCustomerEntry(ctx, credit.RecordEntryRequest{
		ContactID: contact.ID,
		Debit:     decimal.NewFromInt(250),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerEntryPending, entry.Status)

	approver := uuid.New()
	confirmed, err := svc.ConfirmCustomerEntry(ctx, entry.ID, approver)
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerEntryConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ReconciledBy)
	assert.Equal(t, approver, *confirmed.ReconciledBy)

	_, err = svc.ConfirmCustomerEntry(ctx, entry.ID, approver)
	require.ErrorIs(t, err, domain.ErrAlreadyConfirmed)

	_, err = svc.ConfirmCustomerEntry(ctx, uuid.New(), approver)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordCustomerEntry_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupCreditService(t, db)
	ctx := context.Background()

	contact := testutil.SeedContact(t, db, "Ada", "0")

	_, err := svc.RecordCustomerEntry(ctx, credit.RecordEntryRequest{ContactID: contact.ID})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RecordCustomerEntry(ctx, credit.RecordEntryRequest{ContactID: contact.ID, Debit: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.RecordCustomerEntry(ctx, credit.RecordEntryRequest{ContactID: uuid.New(), Debit: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

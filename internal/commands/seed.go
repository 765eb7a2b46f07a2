package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/bizledger/internal/config"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/policy"
	"github.com/josh-kwaku/bizledger/internal/repository"
	"github.com/josh-kwaku/bizledger/internal/service/ledger"
)

type chartAccount struct {
	Code string
	Name string
	Type domain.AccountType
}

var defaultChart = []chartAccount{
	{"1000", "Cash", domain.AccountTypeAsset},
	{"1100", "Bank", domain.AccountTypeAsset},
	{"1200", "Accounts Receivable", domain.AccountTypeAsset},
	{"1300", "Inventory", domain.AccountTypeAsset},
	{"2000", "Accounts Payable", domain.AccountTypeLiability},
	{"2100", "Customer Wallets", domain.AccountTypeLiability},
	{"2200", "Tax Payable", domain.AccountTypeLiability},
	{"3000", "Owner's Equity", domain.AccountTypeEquity},
	{"4000", "Sales Revenue", domain.AccountTypeIncome},
	{"5000", "Cost of Goods Sold", domain.AccountTypeExpense},
	{"6000", "Rent Expense", domain.AccountTypeExpense},
	{"6100", "Salaries Expense", domain.AccountTypeExpense},
}

type seedReport struct {
	Accounts     []string `json:"accounts"`
	OwnerEmail   string   `json:"owner_email,omitempty"`
	OwnerCreated bool     `json:"owner_created"`
}

func newSeedCommand(withDB dbRunner) *cobra.Command {
	var ownerEmail, ownerPassword, currency string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the system user, an optional owner and the default chart of accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ownerEmail != "" && len(ownerPassword) < 8 {
				return fmt.Errorf("--owner-password must be at least 8 characters")
			}
			return withDB(cmd, func(ctx context.Context, store *config.Store, db *sql.DB) error {
				if currency == "" {
					currency = store.SuspenseCurrency
				}
				report, err := seed(ctx, store, db, domain.Currency(currency), ownerEmail, ownerPassword)
				if err != nil {
					return err
				}
				return finish(cmd.OutOrStdout(), report, 0, false)
			})
		},
	}

	cmd.Flags().StringVar(&ownerEmail, "owner-email", "", "create an OWNER login with this email")
	cmd.Flags().StringVar(&ownerPassword, "owner-password", "", "password for --owner-email")
	cmd.Flags().StringVar(&currency, "currency", "", "currency for the seeded accounts (default SUSPENSE_ACCOUNT_CURRENCY)")

	return cmd
}

// seed is safe to re-run: users are matched by id or email and accounts by code.
func seed(ctx context.Context, store *config.Store, db *sql.DB, currency domain.Currency, ownerEmail, ownerPassword string) (*seedReport, error) {
	users := repository.NewUserRepository(db)
	now := time.Now().UTC()

	// The system user owns audit rows from scheduled and CLI runs. Its
	// password hash is not a bcrypt hash, so it can never log in.
	err := users.Create(ctx, &domain.User{
		ID:           domain.SystemUserID,
		Email:        "system@bizledger.internal",
		Name:         "System",
		PasswordHash: "!",
		Role:         string(policy.RoleOwner),
		Permissions:  []string{},
		Status:       domain.UserStatusSuspended,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("seed: system user: %w", err)
	}

	report := &seedReport{}
	if ownerEmail != "" {
		created, err := ensureOwner(ctx, users, ownerEmail, ownerPassword, now)
		if err != nil {
			return nil, fmt.Errorf("seed: owner: %w", err)
		}
		report.OwnerEmail = ownerEmail
		report.OwnerCreated = created
	}

	svc := newLedgerService(db)
	chart := append([]chartAccount{}, defaultChart...)
	chart = append(chart, chartAccount{store.SuspenseAccountCode, "Suspense", domain.AccountTypeEquity})

	for _, a := range chart {
		isSuspense := a.Code == store.SuspenseAccountCode
		accountCurrency := currency
		if isSuspense {
			accountCurrency = domain.Currency(store.SuspenseCurrency)
		}
		_, err := svc.EnsureAccount(ctx, ledger.AccountRequest{
			Code:     a.Code,
			Name:     a.Name,
			Type:     a.Type,
			Currency: accountCurrency,
			IsSystem: isSuspense,
			ActorID:  domain.SystemUserID,
		})
		if err != nil {
			return nil, fmt.Errorf("seed: account %s: %w", a.Code, err)
		}
		report.Accounts = append(report.Accounts, a.Code)
	}

	return report, nil
}

func ensureOwner(ctx context.Context, users *repository.UserRepository, email, password string, now time.Time) (bool, error) {
	_, err := users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	err = users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Owner",
		PasswordHash: string(hash),
		Role:         string(policy.RoleOwner),
		Permissions:  []string{},
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

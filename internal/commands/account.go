package commands

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/bizledger/internal/config"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
	"github.com/josh-kwaku/bizledger/internal/service/ledger"
)

func newLedgerService(db *sql.DB) *ledger.Service {
	return ledger.NewService(
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewAuditRepository(db),
		repository.NewOutboxRepository(db),
		db,
	)
}

func newEnsureAccountCommand(withDB dbRunner) *cobra.Command {
	var req ledger.AccountRequest
	var accountType, currency string

	cmd := &cobra.Command{
		Use:   "ensure-account",
		Short: "Create an account by code, or return the existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Type = domain.AccountType(accountType)
			req.Currency = domain.Currency(currency)
			req.ActorID = domain.SystemUserID

			return withDB(cmd, func(ctx context.Context, _ *config.Store, db *sql.DB) error {
				account, err := newLedgerService(db).EnsureAccount(ctx, req)
				if err != nil {
					return err
				}
				return finish(cmd.OutOrStdout(), account, 0, false)
			})
		},
	}

	cmd.Flags().StringVar(&req.Code, "code", "", "account code (required)")
	_ = cmd.MarkFlagRequired("code")
	cmd.Flags().StringVar(&req.Name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&accountType, "type", "", "ASSET, LIABILITY, EQUITY, INCOME or EXPENSE (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&currency, "currency", string(domain.CurrencyNGN), "ISO currency code")
	cmd.Flags().BoolVar(&req.IsSystem, "system", false, "mark the account as system-managed")

	return cmd
}

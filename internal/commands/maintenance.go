package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/bizledger/internal/config"
	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/repository"
	"github.com/josh-kwaku/bizledger/internal/service/reconcile"
)

func newReconcileService(store *config.Store, db *sql.DB) *reconcile.Service {
	return reconcile.NewService(
		repository.NewAccountRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewAuditRepository(db),
		db,
		store.SuspenseAccountCode,
		domain.Currency(store.SuspenseCurrency),
	)
}

func newReconcileCommand(withDB dbRunner) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every cached account balance from its entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(ctx context.Context, store *config.Store, db *sql.DB) error {
				report, err := newReconcileService(store, db).ReconcileAllAccounts(ctx)
				if err != nil {
					return err
				}
				return finish(cmd.OutOrStdout(), report, len(report.Errors), strict)
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any account failed")

	return cmd
}

func newRepairCommand(withDB dbRunner) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Balance every unbalanced transaction against the suspense account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(ctx context.Context, store *config.Store, db *sql.DB) error {
				report, err := newReconcileService(store, db).RepairUnbalancedTransactions(ctx)
				if err != nil {
					return err
				}
				return finish(cmd.OutOrStdout(), report, len(report.Errors), strict)
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any transaction failed")

	return cmd
}

func newNormalizeCommand(withDB dbRunner) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Rewrite negative ledger entries as positive amounts on the opposite side",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd, func(ctx context.Context, store *config.Store, db *sql.DB) error {
				report, err := newReconcileService(store, db).NormalizeNegativeEntries(ctx)
				if err != nil {
					return err
				}
				return finish(cmd.OutOrStdout(), report, len(report.Errors), strict)
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any entry failed")

	return cmd
}

// finish prints the report as indented JSON. With strict set, item errors
// turn into a command failure after the report is written.
func finish(w io.Writer, report any, itemErrors int, strict bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if strict && itemErrors > 0 {
		return fmt.Errorf("%d item(s) failed", itemErrors)
	}
	return nil
}

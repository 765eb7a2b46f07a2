// Package commands implements ledgerctl, the operator CLI for schema
// migrations, seeding and the ledger maintenance passes.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/bizledger/internal/buildinfo"
	"github.com/josh-kwaku/bizledger/internal/config"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

// opener yields the store settings and an open database for one command run.
type opener func(ctx context.Context) (*config.Store, *sql.DB, error)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(openFromEnv, config.LoadStore)
}

func newRootCommand(open opener, load storeLoader) *cobra.Command {
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:     "ledgerctl",
		Short:   "Ledger maintenance and schema tooling",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "abort the command after this long")

	withDB := func(cmd *cobra.Command, fn func(ctx context.Context, store *config.Store, db *sql.DB) error) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		store, db, err := open(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(ctx, store, db)
	}

	rootCmd.AddCommand(
		newReconcileCommand(withDB),
		newRepairCommand(withDB),
		newNormalizeCommand(withDB),
		newEnsureAccountCommand(withDB),
		newSeedCommand(withDB),
		newMigrateCommand(load),
	)

	return rootCmd
}

type dbRunner func(cmd *cobra.Command, fn func(ctx context.Context, store *config.Store, db *sql.DB) error) error

func openFromEnv(ctx context.Context) (*config.Store, *sql.DB, error) {
	store, err := config.LoadStore()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logging.Init("ledgerctl", store.LogLevel, store.AppEnv)

	db, err := repository.NewPostgresDB(ctx, store.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     store.DBMaxOpenConns,
		MaxIdleConns:     store.DBMaxIdleConns,
		ConnMaxLifetimeS: store.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: store.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return store, db, nil
}

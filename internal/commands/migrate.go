package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/bizledger/internal/config"
)

type storeLoader func() (*config.Store, error)

func newMigrateCommand(load storeLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations from MIGRATIONS_PATH",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(load, cmd.OutOrStdout(), func(m *migrate.Migrate) error {
					return m.Up()
				})
			},
		},
		newMigrateDownCommand(load),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(load, io.Discard, func(m *migrate.Migrate) error {
					v, dirty, err := m.Version()
					if errors.Is(err, migrate.ErrNilVersion) {
						fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
					return nil
				})
			},
		},
	)

	return cmd
}

func newMigrateDownCommand(load storeLoader) *cobra.Command {
	var steps int
	var all bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withMigrator(load, cmd.OutOrStdout(), func(m *migrate.Migrate) error {
				if all {
					return m.Down()
				}
				return m.Steps(-steps)
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")

	return cmd
}

func withMigrator(load storeLoader, out io.Writer, fn func(m *migrate.Migrate) error) error {
	store, err := load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := migrate.New(store.MigrationsPath, store.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := fn(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(out, "no change")
			return nil
		}
		return fmt.Errorf("migrating: %w", err)
	}
	fmt.Fprintln(out, "done")
	return nil
}

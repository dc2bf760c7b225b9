package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fieldcrew/api/internal/database/migrations"
	"github.com/fieldcrew/api/internal/pkg/log"
	platformconfig "github.com/fieldcrew/api/internal/platform/config"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
					if err := m.Up(); err != nil {
						return err
					}
					log.Info("migrations applied")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, one step by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n <= 0 {
						return fmt.Errorf("steps must be a positive number, got %q", args[0])
					}
					steps = n
				}
				return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
					if err := m.Down(steps); err != nil {
						return err
					}
					log.Info("rolled back %d migration(s)", steps)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), func(m *migrations.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrator(ctx context.Context, fn func(*migrations.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		return err
	}
	client, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer client.Close()

	m, err := migrations.New(client.DB(), cfg.Database.Postgres.Schema)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

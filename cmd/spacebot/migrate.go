package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Freeeeeet/space_booking_bot/internal/app"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			return e.migrate(ctx)
		},
	}
	cmd.AddCommand(newMigrateVersionCmd())
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			migrator, err := app.NewMigrator(e.pool, e.cfg.MigrationsDir, e.logger)
			if err != nil {
				return err
			}
			defer migrator.Close()

			version, err := migrator.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "migration version %d\n", version)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newStaffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "staff <telegram_id>",
		Short: "Grant front desk rights to a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			telegramID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid telegram id %q: %w", args[0], err)
			}

			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.users.MakeStaff(ctx, telegramID); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "user %d is now staff\n", telegramID)
			return nil
		},
	}
}

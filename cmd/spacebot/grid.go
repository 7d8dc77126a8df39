package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/spf13/cobra"
)

func newGridCmd() *cobra.Command {
	var kind, date, out string

	c := &cobra.Command{
		Use:   "grid",
		Short: "Render a day's availability grid to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			loc := e.cfg.Engine.Location
			now := time.Now().In(loc)
			day := formatting.StartOfDay(now)
			if date != "" {
				day, err = time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
			}

			resourceKind := model.ResourceKind(kind)
			grid, err := e.reservations.FetchAvailability(ctx, model.AvailabilityScope{Kind: resourceKind}, day)
			if err != nil {
				return err
			}

			title := fmt.Sprintf("%s  %s", formatting.GetResourceKindTitle(resourceKind), formatting.FormatDate(day))
			data, err := common.GenerateGridImage(grid, title, now)
			if err != nil {
				return fmt.Errorf("render grid: %w", err)
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(os.Stdout, "wrote %s (%d resources, %d slots)\n", out, len(grid.Resources()), grid.Len())
			return nil
		},
	}

	c.Flags().StringVar(&kind, "kind", string(model.ResourceRoom), "resource kind: room, seat or xl")
	c.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD, today by default")
	c.Flags().StringVar(&out, "out", "grid.png", "output PNG path")
	return c
}

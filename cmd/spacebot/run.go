package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/space_booking_bot/internal/app"
	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/controller"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/handlers"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Telegram bot and background draft sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.cfg.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
			}

			e.logger.Info("Starting space booking bot",
				zap.String("environment", e.cfg.Environment),
				zap.String("location", e.cfg.Engine.Location.String()),
				zap.Duration("slot_width", e.cfg.Engine.SlotWidth),
			)

			if migrateUp {
				if err := e.migrate(ctx); err != nil {
					return err
				}
			}

			scheduler := app.NewScheduler(e.reservations, e.cfg.Engine.ConfirmWindow, e.cfg.Engine.DraftSweepInterval, e.logger)
			scheduler.Start(ctx)
			defer scheduler.Stop()

			clk := clock.Real{}
			ctrl := controller.NewBotController(&callbacktypes.Handler{
				UserService:  e.users,
				Transport:    e.reservations,
				Drafts:       service.NewDraftBuilder(e.cfg.Engine.DropInDuration),
				StateManager: state.NewManager(),
				Clock:        clk,
				Engine: callbacktypes.Engine{
					MaxRunLength:   e.cfg.Engine.MaxRunLength,
					DropInDuration: e.cfg.Engine.DropInDuration,
					Lifecycle: service.LifecycleConfig{
						ConfirmWindow: e.cfg.Engine.ConfirmWindow,
						CheckinGrace:  e.cfg.Engine.CheckinGrace,
						TickInterval:  e.cfg.Engine.CountdownTick,
					},
					RefreshInterval: e.cfg.Engine.RefreshInterval,
					Location:        e.cfg.Engine.Location,
				},
				Logger:        e.logger,
				BackgroundCtx: ctx,
			})

			limiter := handlers.NewRateLimiter(handlers.DefaultRateLimit, handlers.DefaultRateBurst, clk, e.logger)

			b, err := bot.New(e.cfg.TelegramToken,
				bot.WithDefaultHandler(ctrl.DefaultHandler),
				bot.WithMiddlewares(limiter.Middleware),
			)
			if err != nil {
				return fmt.Errorf("create bot: %w", err)
			}

			if err := ctrl.RegisterHandlers(ctx, b); err != nil {
				e.logger.Warn("Continuing without commands menu", zap.Error(err))
			}

			return ctrl.Start(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}

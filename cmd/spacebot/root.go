package main

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/space_booking_bot/internal/app"
	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/config"
	"github.com/Freeeeeet/space_booking_bot/internal/repository"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spacebot",
		Short:        "Telegram bot for booking campus study rooms and seats",
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newGridCmd())
	root.AddCommand(newStaffCmd())

	return root
}

// env общие зависимости подкоманд
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool

	users        *service.UserService
	reservations *service.ReservationService
}

// openEnv читает конфигурацию, подключается к базе и собирает сервисы
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	schedule := service.Schedule{
		SlotWidth: cfg.Engine.SlotWidth,
		OpenHour:  cfg.Engine.OpenHour,
		CloseHour: cfg.Engine.CloseHour,
		Location:  cfg.Engine.Location,
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		users:  service.NewUserService(repository.NewUserRepository(pool), logger),
		reservations: service.NewReservationService(
			repository.NewResourceRepository(pool),
			repository.NewReservationRepository(pool),
			schedule,
			clock.Real{},
			logger,
		),
	}, nil
}

func (e *env) migrate(ctx context.Context) error {
	migrator, err := app.NewMigrator(e.pool, e.cfg.MigrationsDir, e.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

func (e *env) Close() {
	e.pool.Close()
	_ = e.logger.Sync()
}

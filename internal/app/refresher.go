package app

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ReservationFetcher источник полного списка бронирований
type ReservationFetcher interface {
	FetchReservations(ctx context.Context, scope model.ReservationScope) ([]*model.Reservation, error)
}

// RefresherConfig параметры опроса
type RefresherConfig struct {
	Interval         time.Duration
	FailureThreshold uint32        // подряд неудачных опросов до размыкания
	OpenTimeout      time.Duration // сколько опросы пропускаются после размыкания
}

// Refresher периодически перечитывает бронирования и заменяет ими коллекцию.
// Неудачный опрос оставляет коллекцию как есть; после серии ошибок
// breaker размыкается и опросы пропускаются до истечения OpenTimeout.
type Refresher struct {
	fetcher    ReservationFetcher
	scope      model.ReservationScope
	collection *service.Collection
	interval   time.Duration
	breaker    *gobreaker.CircuitBreaker[[]*model.Reservation]
	logger     *zap.Logger
}

func NewRefresher(fetcher ReservationFetcher, scope model.ReservationScope, collection *service.Collection, cfg RefresherConfig, logger *zap.Logger) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	logger = logger.With(zap.Int64("scope_user_id", scope.UserID), zap.Bool("scope_all", scope.All))

	settings := gobreaker.Settings{
		Name:    "reservations-refresh",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Refresh breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Refresher{
		fetcher:    fetcher,
		scope:      scope,
		collection: collection,
		interval:   cfg.Interval,
		breaker:    gobreaker.NewCircuitBreaker[[]*model.Reservation](settings),
		logger:     logger,
	}
}

// Refresh выполняет один опрос
func (r *Refresher) Refresh(ctx context.Context) error {
	reservations, err := r.breaker.Execute(func() ([]*model.Reservation, error) {
		return r.fetcher.FetchReservations(ctx, r.scope)
	})
	if err != nil {
		return err
	}

	r.collection.ReplaceAll(reservations)
	return nil
}

// Run опрашивает сразу и затем с интервалом, пока ctx не отменён
func (r *Refresher) Run(ctx context.Context) {
	r.refreshAndLog(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.refreshAndLog(ctx)
		case <-ctx.Done():
			r.logger.Debug("Refresher stopped")
			return
		}
	}
}

func (r *Refresher) refreshAndLog(ctx context.Context) {
	err := r.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState):
		r.logger.Debug("Refresh skipped, breaker open")
	case ctx.Err() != nil:
	default:
		r.logger.Warn("Failed to refresh reservations", zap.Error(err))
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/repository"
	"github.com/Freeeeeet/space_booking_bot/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResourceStore хранилище помещений и мест
type ResourceStore interface {
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	ListByKind(ctx context.Context, kind model.ResourceKind) ([]*model.Resource, error)
}

// ReservationStore хранилище бронирований.
// Методы возвращают (nil, nil), если запись не найдена.
type ReservationStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockResource(ctx context.Context, resourceID string) error
	HasOverlap(ctx context.Context, resourceID string, tr model.TimeRange) (bool, error)
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetByRequestKey(ctx context.Context, key uuid.UUID) (*model.Reservation, error)
	ListActiveByUser(ctx context.Context, userID int64) ([]*model.Reservation, error)
	ListActive(ctx context.Context) ([]*model.Reservation, error)
	ListActiveInRange(ctx context.Context, from, to time.Time) ([]*model.Reservation, error)
	Transition(ctx context.Context, id int64, to model.ReservationState, from ...model.ReservationState) (*model.Reservation, error)
	CancelStaleDrafts(ctx context.Context, createdBefore time.Time) (int64, error)
}

var (
	_ ResourceStore    = (*repository.ResourceRepository)(nil)
	_ ReservationStore = (*repository.ReservationRepository)(nil)
)

// ReservationService серверная сторона бронирований поверх PostgreSQL.
// Реализует Transport, поэтому бот работает с ним так же, как с удалённым API.
type ReservationService struct {
	resourceRepo    ResourceStore
	reservationRepo ReservationStore
	schedule        Schedule
	clock           clock.Clock
	logger          *zap.Logger
}

var _ Transport = (*ReservationService)(nil)

func NewReservationService(
	resourceRepo ResourceStore,
	reservationRepo ReservationStore,
	schedule Schedule,
	clk clock.Clock,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		resourceRepo:    resourceRepo,
		reservationRepo: reservationRepo,
		schedule:        schedule.withDefaults(),
		clock:           clk,
		logger:          logger,
	}
}

// SubmitReservationRequest создаёт черновик бронирования.
// Повторная отправка с тем же ключом возвращает уже созданный черновик.
func (s *ReservationService) SubmitReservationRequest(ctx context.Context, req model.ReservationRequest) (*model.Reservation, error) {
	if len(req.Requesters) == 0 {
		return nil, ErrNoRequester
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("submit reservation: empty time range")
	}

	existing, err := s.reservationRepo.GetByRequestKey(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("check request key: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate reservation request, returning existing draft",
			zap.Int64("reservation_id", existing.ID),
			zap.String("request_key", req.Key.String()),
		)
		return existing, nil
	}

	resource, err := s.resourceRepo.GetByID(ctx, req.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if resource == nil {
		return nil, ErrResourceNotFound
	}
	if !resource.Reservable {
		return nil, ErrResourceClosed
	}

	reservation := &model.Reservation{
		RequestKey: req.Key,
		Resource:   resource.Ref(),
		TimeRange:  model.TimeRange{Start: req.Start, End: req.End},
		Requesters: append([]model.UserRef(nil), req.Requesters...),
		State:      model.ReservationDraft,
	}

	// Блокировка ресурса сериализует проверку пересечения и вставку:
	// FOR UPDATE не видит ещё не вставленные строки конкурентной заявки
	err = s.reservationRepo.InTx(ctx, func(ctx context.Context) error {
		if err := s.reservationRepo.LockResource(ctx, resource.ID); err != nil {
			return err
		}
		busy, err := s.reservationRepo.HasOverlap(ctx, resource.ID, reservation.TimeRange)
		if err != nil {
			return err
		}
		if busy {
			return ErrSlotConflict
		}
		return s.reservationRepo.Create(ctx, reservation)
	})
	if base.IsUniqueViolation(err) {
		// Та же заявка пришла параллельно и успела вставиться первой
		existing, getErr := s.reservationRepo.GetByRequestKey(ctx, req.Key)
		if getErr != nil {
			return nil, fmt.Errorf("reload duplicate request: %w", getErr)
		}
		if existing != nil {
			s.logger.Info("Concurrent duplicate reservation request, returning existing draft",
				zap.Int64("reservation_id", existing.ID),
				zap.String("request_key", req.Key.String()),
			)
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("submit reservation: %w", err)
	}

	s.logger.Info("Reservation draft created",
		zap.Int64("reservation_id", reservation.ID),
		zap.String("resource_id", resource.ID),
		zap.Time("start", reservation.TimeRange.Start),
		zap.Time("end", reservation.TimeRange.End),
		zap.Int("requesters", len(reservation.Requesters)),
	)

	return reservation, nil
}

// Confirm подтверждает черновик
func (s *ReservationService) Confirm(ctx context.Context, id int64) (*model.Reservation, error) {
	return s.move(ctx, "confirm", id, model.ReservationConfirmed, model.ReservationDraft)
}

// Cancel отменяет черновик или подтверждённое бронирование
func (s *ReservationService) Cancel(ctx context.Context, id int64) error {
	_, err := s.move(ctx, "cancel", id, model.ReservationCancelled, model.ReservationDraft, model.ReservationConfirmed)
	return err
}

// ExpireDraft отменяет бронирование по таймауту подтверждения; подтверждённые не трогает
func (s *ReservationService) ExpireDraft(ctx context.Context, id int64) error {
	_, err := s.move(ctx, "expire", id, model.ReservationCancelled, model.ReservationDraft)
	return err
}

// CheckIn отмечает приход; раньше начала бронирования нельзя
func (s *ReservationService) CheckIn(ctx context.Context, id int64) (*model.Reservation, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.clock.Now().Before(current.TimeRange.Start) {
		return nil, &InvalidTransitionError{Transition: "check_in", From: current.State, Reason: "reservation has not started"}
	}
	return s.move(ctx, "check_in", id, model.ReservationCheckedIn, model.ReservationConfirmed)
}

// CheckOut завершает бронирование
func (s *ReservationService) CheckOut(ctx context.Context, id int64) (*model.Reservation, error) {
	return s.move(ctx, "check_out", id, model.ReservationCheckedOut, model.ReservationCheckedIn)
}

// FetchAvailability строит сетку ресурсов выбранного типа на дату
func (s *ReservationService) FetchAvailability(ctx context.Context, scope model.AvailabilityScope, date time.Time) (*model.SlotGrid, error) {
	resources, err := s.resourceRepo.ListByKind(ctx, scope.Kind)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	start, length := s.schedule.Window(date)
	end := start.Add(time.Duration(length) * s.schedule.SlotWidth)

	reservations, err := s.reservationRepo.ListActiveInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	return BuildAvailability(s.schedule, date, resources, reservations, scope.RequesterID, s.clock.Now()), nil
}

// FetchReservations возвращает живые бронирования пользователя или все (для сотрудников)
func (s *ReservationService) FetchReservations(ctx context.Context, scope model.ReservationScope) ([]*model.Reservation, error) {
	if scope.All {
		return s.reservationRepo.ListActive(ctx)
	}
	return s.reservationRepo.ListActiveByUser(ctx, scope.UserID)
}

// CancelStaleDrafts отменяет черновики, которые никто не подтвердил за окно подтверждения
func (s *ReservationService) CancelStaleDrafts(ctx context.Context, window time.Duration) (int64, error) {
	cancelled, err := s.reservationRepo.CancelStaleDrafts(ctx, s.clock.Now().Add(-window))
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		s.logger.Info("Stale drafts cancelled", zap.Int64("count", cancelled))
	}
	return cancelled, nil
}

// Schedule возвращает рабочее окно площадки
func (s *ReservationService) Schedule() Schedule {
	return s.schedule
}

func (s *ReservationService) get(ctx context.Context, id int64) (*model.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if res == nil {
		return nil, ErrReservationNotFound
	}
	return res, nil
}

// move выполняет условный переход; если сервер уже в другом состоянии, возвращает ErrStaleState
func (s *ReservationService) move(ctx context.Context, name string, id int64, to model.ReservationState, from ...model.ReservationState) (*model.Reservation, error) {
	updated, err := s.reservationRepo.Transition(ctx, id, to, from...)
	if err != nil {
		return nil, err
	}

	if updated == nil {
		current, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.State == to {
			return current, nil
		}
		s.logger.Warn("Reservation transition rejected by server state",
			zap.Int64("reservation_id", id),
			zap.String("transition", name),
			zap.String("state", string(current.State)),
		)
		return nil, ErrStaleState
	}

	s.logger.Info("Reservation state changed",
		zap.Int64("reservation_id", id),
		zap.String("transition", name),
		zap.String("state", string(to)),
	)
	return updated, nil
}

package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
)

// Transport внешний источник истины о бронированиях.
// Каждый вызов выполняется один раз, повторов на этом уровне нет.
type Transport interface {
	SubmitReservationRequest(ctx context.Context, req model.ReservationRequest) (*model.Reservation, error)
	Confirm(ctx context.Context, id int64) (*model.Reservation, error)
	Cancel(ctx context.Context, id int64) error
	// ExpireDraft отменяет бронирование, только пока оно черновик; иначе ErrStaleState
	ExpireDraft(ctx context.Context, id int64) error
	CheckIn(ctx context.Context, id int64) (*model.Reservation, error)
	CheckOut(ctx context.Context, id int64) (*model.Reservation, error)
	FetchAvailability(ctx context.Context, scope model.AvailabilityScope, date time.Time) (*model.SlotGrid, error)
	FetchReservations(ctx context.Context, scope model.ReservationScope) ([]*model.Reservation, error)
}

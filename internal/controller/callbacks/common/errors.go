package common

import (
	"errors"

	"github.com/Freeeeeet/space_booking_bot/internal/service"
)

// Общие ошибки для обработчиков
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
	ErrNoView        = errors.New("booking view is closed")
	ErrRateLimited   = errors.New("too many requests")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	var invalid *service.InvalidTransitionError

	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return "❌ User not found. Send /start first"
	case errors.Is(err, service.ErrNotStaff):
		return "❌ This is available to front desk staff only"
	case errors.Is(err, service.ErrEmptySelection):
		return "❌ Pick at least one slot first"
	case errors.Is(err, service.ErrNoRequester):
		return "❌ Add at least one person to the booking"
	case errors.Is(err, service.ErrSlotConflict):
		return "❌ Someone has just reserved that time. The grid is refreshed"
	case errors.Is(err, service.ErrStaleState):
		return "⚠️ This reservation has changed. Showing the latest state"
	case errors.Is(err, service.ErrReservationNotFound):
		return "❌ Reservation not found"
	case errors.Is(err, service.ErrResourceNotFound):
		return "❌ Room not found"
	case errors.Is(err, service.ErrResourceClosed):
		return "❌ This room can't be reserved"
	case errors.As(err, &invalid):
		if invalid.Transition == "check_in" && invalid.Reason != "" {
			return "⏳ Check-in opens when your reservation starts"
		}
		return "❌ This action is not available for the reservation anymore"
	case errors.Is(err, ErrNoView):
		return "⌛ This screen has expired. Open it again"
	case errors.Is(err, ErrNoMessage):
		return "❌ Failed to process the message"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Invalid data"
	case errors.Is(err, ErrRateLimited):
		return "🐢 Slow down a little"
	default:
		return "❌ Something went wrong"
	}
}

package formatting

import "github.com/Freeeeeet/space_booking_bot/internal/model"

// SlotStateDisplay представляет отображение состояния ячейки сетки
type SlotStateDisplay struct {
	Emoji string
	Text  string
}

// GetSlotStateDisplay возвращает emoji и текст для состояния ячейки
func GetSlotStateDisplay(state model.SlotState) SlotStateDisplay {
	displays := map[model.SlotState]SlotStateDisplay{
		model.SlotAvailable:                 {"🟩", "Available"},
		model.SlotReserving:                 {"🟦", "Selected"},
		model.SlotBooked:                    {"🟥", "Booked"},
		model.SlotUnavailable:               {"⬛", "Unavailable"},
		model.SlotSubjectToOtherReservation: {"🟨", "You have another booking"},
	}

	if display, ok := displays[state]; ok {
		return display
	}

	return SlotStateDisplay{"❓", "Unknown"}
}

// ReservationStateDisplay представляет отображение состояния бронирования
type ReservationStateDisplay struct {
	Emoji string
	Text  string
}

// GetReservationStateDisplay возвращает emoji и текст для состояния бронирования
func GetReservationStateDisplay(state model.ReservationState) ReservationStateDisplay {
	displays := map[model.ReservationState]ReservationStateDisplay{
		model.ReservationDraft:      {"📝", "Awaiting confirmation"},
		model.ReservationConfirmed:  {"✅", "Confirmed"},
		model.ReservationCheckedIn:  {"🟢", "Checked in"},
		model.ReservationCheckedOut: {"✔️", "Checked out"},
		model.ReservationCancelled:  {"❌", "Cancelled"},
	}

	if display, ok := displays[state]; ok {
		return display
	}

	return ReservationStateDisplay{"❓", "Unknown"}
}

// GetResourceKindTitle возвращает заголовок для типа ресурса
func GetResourceKindTitle(kind model.ResourceKind) string {
	switch kind {
	case model.ResourceRoom:
		return "Study rooms"
	case model.ResourceSeat:
		return "Seats"
	case model.ResourceXL:
		return "XL drop-in"
	default:
		return string(kind)
	}
}

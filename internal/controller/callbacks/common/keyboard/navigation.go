package keyboard

import (
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/go-telegram/bot/models"
)

// NoopButton кнопка-подпись, нажатие ничего не делает
func NoopButton(text string) models.InlineKeyboardButton {
	return Button(text, callbacktypes.Noop)
}

// ConfirmButton создаёт кнопку подтверждения черновика
func ConfirmButton(reservationID int64) models.InlineKeyboardButton {
	return Button("✅ Confirm", callbacktypes.ReservationData(callbacktypes.ResConfirm, reservationID))
}

// CancelButton создаёт кнопку отмены бронирования
func CancelButton(reservationID int64) models.InlineKeyboardButton {
	return Button("❌ Cancel", callbacktypes.ReservationData(callbacktypes.ResCancel, reservationID))
}

// CheckInButton создаёт кнопку check-in
func CheckInButton(reservationID int64) models.InlineKeyboardButton {
	return Button("📍 Check in", callbacktypes.ReservationData(callbacktypes.ResCheckIn, reservationID))
}

// CheckOutButton создаёт кнопку check-out
func CheckOutButton(reservationID int64) models.InlineKeyboardButton {
	return Button("🚪 Check out", callbacktypes.ReservationData(callbacktypes.ResCheckOut, reservationID))
}

// DayNavigationRow создаёт ряд "предыдущий день / следующий день"
func DayNavigationRow(day time.Time, allowPrev bool) []models.InlineKeyboardButton {
	prev := NoopButton(" ")
	if allowPrev {
		prev = Button("⬅️ "+day.AddDate(0, 0, -1).Format("Mon"), callbacktypes.DayData(day.AddDate(0, 0, -1)))
	}
	next := Button(day.AddDate(0, 0, 1).Format("Mon")+" ➡️", callbacktypes.DayData(day.AddDate(0, 0, 1)))
	return []models.InlineKeyboardButton{prev, Button("🔄", callbacktypes.GridRefresh), next}
}

// SubmitRow создаёт ряд отправки и сброса выбора
func SubmitRow(label string) []models.InlineKeyboardButton {
	return []models.InlineKeyboardButton{
		Button(label, callbacktypes.GridSubmit),
		Button("🧹 Clear", callbacktypes.GridClear),
	}
}

package handlers

// Ограничения диалога drop-in
const (
	// Имя гостя
	GuestNameMinLength = 2
	GuestNameMaxLength = 64

	// Гостей в одном бронировании
	MaxGuests = 6

	// На сколько дней вперёд можно открыть сетку
	MaxDaysAhead = 14
)

// Ключи временных данных диалога
const (
	dataDropInDate = "dropin_date"
)

package formatting

import "fmt"

// Pluralize возвращает "1 slot", "2 slots"
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// PluralizeSlots возвращает количество слотов с правильной формой слова
func PluralizeSlots(count int) string {
	return Pluralize(count, "slot", "slots")
}

// PluralizeReservations возвращает количество бронирований с правильной формой слова
func PluralizeReservations(count int) string {
	return Pluralize(count, "reservation", "reservations")
}

package model

type SlotState string

const (
	SlotAvailable                 SlotState = "available"
	SlotReserving                 SlotState = "reserving"   // выбран пользователем, ещё не отправлен
	SlotBooked                    SlotState = "booked"      // занят чужим бронированием
	SlotUnavailable               SlotState = "unavailable" // ресурс закрыт или слот в прошлом
	SlotSubjectToOtherReservation SlotState = "subject_to_other_reservation"
)

// Selectable сообщает, можно ли выбрать ячейку в этом состоянии
func (s SlotState) Selectable() bool {
	return s == SlotAvailable || s == SlotReserving
}

// Selection снимок текущего выбора: один ресурс и отсортированные индексы слотов
type Selection struct {
	ResourceID string `json:"resource_id"`
	Indices    []int  `json:"indices"`
}

// Empty проверяет, что ничего не выбрано
func (s Selection) Empty() bool {
	return len(s.Indices) == 0
}

// Len возвращает количество выбранных слотов
func (s Selection) Len() int {
	return len(s.Indices)
}

// First возвращает минимальный выбранный индекс
func (s Selection) First() int {
	return s.Indices[0]
}

// Last возвращает максимальный выбранный индекс
func (s Selection) Last() int {
	return s.Indices[len(s.Indices)-1]
}

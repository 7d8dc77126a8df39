package service

import (
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
)

const (
	DefaultSlotWidth = 30 * time.Minute
	DefaultOpenHour  = 10
	DefaultCloseHour = 18
)

// Schedule рабочее окно площадки и ширина слота
type Schedule struct {
	SlotWidth time.Duration
	OpenHour  int
	CloseHour int
	Location  *time.Location
}

func (s Schedule) withDefaults() Schedule {
	if s.SlotWidth <= 0 {
		s.SlotWidth = DefaultSlotWidth
	}
	if s.CloseHour <= s.OpenHour {
		s.OpenHour, s.CloseHour = DefaultOpenHour, DefaultCloseHour
	}
	if s.Location == nil {
		s.Location = time.UTC
	}
	return s
}

// Window возвращает начало рабочего дня для даты и количество слотов в нём
func (s Schedule) Window(date time.Time) (time.Time, int) {
	s = s.withDefaults()
	d := date.In(s.Location)
	start := time.Date(d.Year(), d.Month(), d.Day(), s.OpenHour, 0, 0, 0, s.Location)
	end := time.Date(d.Year(), d.Month(), d.Day(), s.CloseHour, 0, 0, 0, s.Location)
	return start, int(end.Sub(start) / s.SlotWidth)
}

// BuildAvailability собирает сетку дня из ресурсов и живых бронирований.
//
// Приоритет состояний: unavailable, затем booked, затем subject_to_other_reservation.
// Слоты, закончившиеся к моменту now, и закрытые ресурсы недоступны.
// Если requesterID задан, время, которое он уже держит на другом ресурсе,
// помечается как subject_to_other_reservation.
func BuildAvailability(
	schedule Schedule,
	date time.Time,
	resources []*model.Resource,
	reservations []*model.Reservation,
	requesterID int64,
	now time.Time,
) *model.SlotGrid {
	start, length := schedule.Window(date)
	grid := model.NewSlotGrid(start, schedule.withDefaults().SlotWidth, length)

	for _, res := range resources {
		grid.AddResource(res.ID, res.Name)
	}

	for _, res := range resources {
		for i := 0; i < length; i++ {
			slot := model.TimeRange{Start: grid.SlotStart(i), End: grid.SlotEnd(i)}
			grid.SetState(res.ID, i, slotState(res, slot, reservations, requesterID, now))
		}
	}

	return grid
}

func slotState(res *model.Resource, slot model.TimeRange, reservations []*model.Reservation, requesterID int64, now time.Time) model.SlotState {
	if !res.Reservable || !slot.End.After(now) {
		return model.SlotUnavailable
	}

	heldElsewhere := false
	for _, r := range reservations {
		if r.State.Terminal() || !r.TimeRange.Overlaps(slot) {
			continue
		}
		if r.Resource.ID == res.ID {
			return model.SlotBooked
		}
		if requesterID != 0 && r.HasRequester(requesterID) {
			heldElsewhere = true
		}
	}

	if heldElsewhere {
		return model.SlotSubjectToOtherReservation
	}
	return model.SlotAvailable
}

package service

import (
	"testing"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Window(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := Schedule{SlotWidth: 30 * time.Minute, OpenHour: 10, CloseHour: 18, Location: ny}
	start, length := s.Window(time.Date(2026, 10, 19, 3, 0, 0, 0, ny))

	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, ny), start)
	assert.Equal(t, 16, length)

	start, length = Schedule{}.Window(at(15, 0))
	assert.Equal(t, at(10, 0), start)
	assert.Equal(t, 16, length)
}

func TestBuildAvailability(t *testing.T) {
	resources := []*model.Resource{
		{ID: "SN135", Name: "SN 135", Kind: model.ResourceRoom, Reservable: true},
		{ID: "SN137", Name: "SN 137", Kind: model.ResourceRoom, Reservable: true},
		{ID: "SN139", Name: "SN 139", Kind: model.ResourceRoom, Reservable: false},
	}

	other := &model.Reservation{
		ID:         1,
		Resource:   model.ResourceRef{ID: "SN135"},
		TimeRange:  model.TimeRange{Start: at(12, 0), End: at(13, 0)},
		Requesters: []model.UserRef{{ID: 2}},
		State:      model.ReservationConfirmed,
	}
	mine := &model.Reservation{
		ID:         2,
		Resource:   model.ResourceRef{ID: "SN135"},
		TimeRange:  model.TimeRange{Start: at(14, 0), End: at(14, 30)},
		Requesters: []model.UserRef{{ID: 1}},
		State:      model.ReservationDraft,
	}
	gone := &model.Reservation{
		ID:         3,
		Resource:   model.ResourceRef{ID: "SN137"},
		TimeRange:  model.TimeRange{Start: at(15, 0), End: at(16, 0)},
		Requesters: []model.UserRef{{ID: 2}},
		State:      model.ReservationCancelled,
	}

	now := at(10, 45)
	grid := BuildAvailability(Schedule{}, at(0, 0), resources, []*model.Reservation{other, mine, gone}, 1, now)

	require.Equal(t, []string{"SN135", "SN137", "SN139"}, grid.Resources())
	assert.Equal(t, "SN 137", grid.ResourceName("SN137"))
	assert.Equal(t, 16, grid.Len())

	// 10:00-10:30 уже прошёл, 10:30-11:00 ещё идёт
	assert.Equal(t, model.SlotUnavailable, grid.State("SN135", 0))
	assert.Equal(t, model.SlotAvailable, grid.State("SN135", 1))

	assert.Equal(t, model.SlotBooked, grid.State("SN135", 4))
	assert.Equal(t, model.SlotBooked, grid.State("SN135", 5))
	assert.Equal(t, model.SlotAvailable, grid.State("SN137", 4))

	assert.Equal(t, model.SlotBooked, grid.State("SN135", 8))
	assert.Equal(t, model.SlotSubjectToOtherReservation, grid.State("SN137", 8))
	assert.Equal(t, model.SlotUnavailable, grid.State("SN139", 8))

	assert.Equal(t, model.SlotAvailable, grid.State("SN137", 10))
	for i := 0; i < grid.Len(); i++ {
		assert.Equal(t, model.SlotUnavailable, grid.State("SN139", i))
	}
}

func TestBuildAvailability_WithoutRequester(t *testing.T) {
	resources := []*model.Resource{
		{ID: "A", Reservable: true},
		{ID: "B", Reservable: true},
	}
	held := &model.Reservation{
		Resource:   model.ResourceRef{ID: "A"},
		TimeRange:  model.TimeRange{Start: at(11, 0), End: at(11, 30)},
		Requesters: []model.UserRef{{ID: 1}},
		State:      model.ReservationCheckedIn,
	}

	grid := BuildAvailability(Schedule{}, at(0, 0), resources, []*model.Reservation{held}, 0, at(9, 0))

	assert.Equal(t, model.SlotBooked, grid.State("A", 2))
	assert.Equal(t, model.SlotAvailable, grid.State("B", 2))
}

package service

import (
	"testing"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reservation(id int64, state model.ReservationState, startHour int) *model.Reservation {
	return &model.Reservation{
		ID:        id,
		TimeRange: model.TimeRange{Start: at(startHour, 0), End: at(startHour+1, 0)},
		State:     state,
	}
}

func TestCollection_UpsertReplacesByID(t *testing.T) {
	c := NewCollection()
	notified := 0
	c.OnChange(func([]*model.Reservation) { notified++ })

	c.Upsert(reservation(1, model.ReservationDraft, 10))
	c.Upsert(reservation(1, model.ReservationConfirmed, 10))

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.ReservationConfirmed, got.State)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, notified)
}

func TestCollection_UpsertTerminalRemoves(t *testing.T) {
	c := NewCollection()
	c.Upsert(reservation(1, model.ReservationConfirmed, 10))

	c.Upsert(reservation(1, model.ReservationCancelled, 10))

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestCollection_RemoveIsIdempotent(t *testing.T) {
	c := NewCollection()
	c.Upsert(reservation(1, model.ReservationConfirmed, 10))
	c.Upsert(reservation(2, model.ReservationCheckedIn, 9))

	notified := 0
	c.OnChange(func([]*model.Reservation) { notified++ })

	assert.True(t, c.Remove(1))
	once := c.List()
	assert.False(t, c.Remove(1))

	assert.Equal(t, once, c.List())
	assert.Equal(t, 1, notified)
}

func TestCollection_ReplaceAllAndFilters(t *testing.T) {
	c := NewCollection()
	c.Upsert(reservation(9, model.ReservationConfirmed, 8))

	c.ReplaceAll([]*model.Reservation{
		reservation(3, model.ReservationConfirmed, 14),
		reservation(1, model.ReservationCheckedIn, 10),
		reservation(2, model.ReservationConfirmed, 12),
		reservation(4, model.ReservationDraft, 15),
		reservation(5, model.ReservationCheckedOut, 9),
	})

	var ids []int64
	for _, r := range c.List() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	assert.Len(t, c.Upcoming(), 2)
	assert.Len(t, c.Active(), 1)
	assert.Len(t, c.Drafts(), 1)
}

func TestCollection_ReturnsCopies(t *testing.T) {
	c := NewCollection()
	original := reservation(1, model.ReservationConfirmed, 10)
	original.Requesters = []model.UserRef{{ID: 1, Name: "Ada"}}
	c.Upsert(original)

	original.State = model.ReservationCheckedOut
	got, _ := c.Get(1)
	got.Requesters[0].Name = "changed"

	again, _ := c.Get(1)
	assert.Equal(t, model.ReservationConfirmed, again.State)
	assert.Equal(t, "Ada", again.Requesters[0].Name)
}

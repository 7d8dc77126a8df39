package callbacks

import (
	"testing"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearSelection_RevertsReservingCells(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	h := &callbacktypes.Handler{
		Clock: clock.NewFake(day.Add(9 * time.Hour)),
		Engine: callbacktypes.Engine{
			MaxRunLength:   4,
			DropInDuration: 2 * time.Hour,
			Location:       time.UTC,
		},
	}

	grid := model.NewSlotGrid(day.Add(10*time.Hour), 30*time.Minute, 8, "R1")
	view := state.NewBookingView(model.ResourceRoom, day, grid, 4)
	view.Selection.Select("R1", 2)
	view.Selection.Select("R1", 3)
	require.Equal(t, []int{2, 3}, grid.GetRun("R1"))

	text, kb := clearSelection(h, view)

	assert.Empty(t, grid.GetRun("R1"))
	assert.Equal(t, model.SlotAvailable, grid.State("R1", 2))
	assert.Equal(t, model.SlotAvailable, grid.State("R1", 3))
	assert.True(t, view.Selection.Selection().Empty())
	assert.NotContains(t, text, "Selected:")
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			assert.NotEqual(t, callbacktypes.GridSubmit, b.CallbackData)
		}
	}
}

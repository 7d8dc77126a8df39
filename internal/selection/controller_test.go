package selection

import (
	"math/rand"
	"testing"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid() *model.SlotGrid {
	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	return model.NewSlotGrid(start, 30*time.Minute, 16, "R1", "R2")
}

func selectAll(c *Controller, resourceID string, indices ...int) {
	for _, i := range indices {
		c.Select(resourceID, i)
	}
}

func reservingCells(g *model.SlotGrid) map[string][]int {
	cells := make(map[string][]int)
	for _, id := range g.Resources() {
		for i := 0; i < g.Len(); i++ {
			if g.State(id, i) == model.SlotReserving {
				cells[id] = append(cells[id], i)
			}
		}
	}
	return cells
}

func TestController_SelectAdjacentExtendsRun(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)

	selectAll(c, "R1", 4, 5, 3)

	assert.Equal(t, model.Selection{ResourceID: "R1", Indices: []int{3, 4, 5}}, c.Selection())
	assert.Equal(t, []int{3, 4, 5}, g.GetRun("R1"))
}

func TestController_SelectNonAdjacentRestarts(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)

	selectAll(c, "R1", 2, 3)
	c.Select("R1", 9)

	assert.Equal(t, []int{9}, c.Selection().Indices)
	assert.Equal(t, map[string][]int{"R1": {9}}, reservingCells(g))
}

func TestController_SelectOtherResourceRestarts(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)

	selectAll(c, "R1", 2, 3)
	c.Select("R2", 3)

	assert.Equal(t, model.Selection{ResourceID: "R2", Indices: []int{3}}, c.Selection())
	assert.Equal(t, model.SlotAvailable, g.State("R1", 2))
	assert.Equal(t, model.SlotAvailable, g.State("R1", 3))
	assert.Equal(t, map[string][]int{"R2": {3}}, reservingCells(g))
}

func TestController_SelectPastCapRestartsAtNewCell(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)

	selectAll(c, "R1", 2, 3, 4, 5)
	require.Equal(t, 4, c.Selection().Len())

	c.Select("R1", 6)

	assert.Equal(t, []int{6}, c.Selection().Indices)
	assert.Equal(t, map[string][]int{"R1": {6}}, reservingCells(g))
}

func TestController_SelectIgnoresBlockedCells(t *testing.T) {
	g := newGrid()
	g.SetState("R1", 5, model.SlotBooked)
	g.SetState("R1", 6, model.SlotUnavailable)
	g.SetState("R1", 7, model.SlotSubjectToOtherReservation)
	c := NewController(g, DefaultMaxRun)

	c.Select("R1", 4)
	c.Select("R1", 5)
	c.Select("R1", 6)
	c.Select("R1", 7)

	assert.Equal(t, []int{4}, c.Selection().Indices)
	assert.Equal(t, model.SlotBooked, g.State("R1", 5))
}

func TestController_SelectSameCellIsNoop(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)
	notified := 0
	c.OnChange(func(model.Selection) { notified++ })

	c.Select("R1", 4)
	c.Select("R1", 4)

	assert.Equal(t, []int{4}, c.Selection().Indices)
	assert.Equal(t, 1, notified)
}

func TestController_DeselectSplit(t *testing.T) {
	tests := []struct {
		name     string
		selected []int
		remove   int
		expected []int
	}{
		{name: "end cell keeps the rest", selected: []int{2, 3, 4, 5}, remove: 5, expected: []int{2, 3, 4}},
		{name: "first cell keeps the rest", selected: []int{2, 3, 4, 5}, remove: 2, expected: []int{3, 4, 5}},
		{name: "right side larger", selected: []int{2, 3, 4, 5}, remove: 3, expected: []int{4, 5}},
		{name: "left side larger", selected: []int{2, 3, 4, 5}, remove: 4, expected: []int{2, 3}},
		{name: "right side larger from index 1", selected: []int{1, 2, 3, 4}, remove: 2, expected: []int{3, 4}},
		{name: "exact tie drops the right side", selected: []int{1, 2, 3}, remove: 2, expected: []int{1}},
		{name: "only cell", selected: []int{7}, remove: 7, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGrid()
			c := NewController(g, DefaultMaxRun)
			selectAll(c, "R1", tt.selected...)

			c.Deselect("R1", tt.remove)

			assert.Equal(t, tt.expected, c.Selection().Indices)
			assert.Equal(t, tt.expected, reservingCells(g)["R1"])
		})
	}
}

func TestController_DeselectTieWithLargerCap(t *testing.T) {
	g := newGrid()
	c := NewController(g, 5)
	selectAll(c, "R1", 3, 4, 5, 6, 7)

	c.Deselect("R1", 5)

	assert.Equal(t, []int{3, 4}, c.Selection().Indices)
	assert.Equal(t, model.SlotAvailable, g.State("R1", 6))
	assert.Equal(t, model.SlotAvailable, g.State("R1", 7))
}

func TestController_DeselectUnselectedIsNoop(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)
	selectAll(c, "R1", 2, 3)

	c.Deselect("R1", 9)
	c.Deselect("R2", 2)

	assert.Equal(t, []int{2, 3}, c.Selection().Indices)
}

func TestController_ToggleAndClear(t *testing.T) {
	g := newGrid()
	c := NewController(g, DefaultMaxRun)

	c.Toggle("R2", 0)
	c.Toggle("R2", 1)
	c.Toggle("R2", 1)
	assert.Equal(t, []int{0}, c.Selection().Indices)

	c.Clear()
	assert.True(t, c.Selection().Empty())
	assert.Empty(t, reservingCells(g))
}

func TestController_RandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	resources := []string{"R1", "R2"}

	for round := 0; round < 200; round++ {
		g := newGrid()
		for k := 0; k < 3; k++ {
			g.SetState(resources[rng.Intn(2)], rng.Intn(g.Len()), model.SlotBooked)
		}
		maxRun := 1 + rng.Intn(6)
		c := NewController(g, maxRun)

		for step := 0; step < 60; step++ {
			id := resources[rng.Intn(2)]
			idx := rng.Intn(g.Len())
			if rng.Intn(3) == 0 {
				c.Deselect(id, idx)
			} else {
				c.Select(id, idx)
			}

			sel := c.Selection()
			require.LessOrEqual(t, sel.Len(), maxRun)
			require.True(t, contiguous(sel.Indices), "selection %v is not contiguous", sel.Indices)

			cells := reservingCells(g)
			require.LessOrEqual(t, len(cells), 1, "more than one resource selected")
			if !sel.Empty() {
				require.Equal(t, sel.Indices, cells[sel.ResourceID])
			}
		}
	}
}

// Package selection управляет выбором ячеек сетки слотов.
//
// Контроллер - единственный, кто переводит ячейки в состояние Reserving и обратно.
// После любой операции выбранные индексы образуют непрерывный отрезок
// длиной не больше maxRun, и все они принадлежат одному ресурсу.
package selection

import (
	"sort"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/observe"
)

// DefaultMaxRun максимальная длина выбора по умолчанию (4 слота по 30 минут)
const DefaultMaxRun = 4

type Controller struct {
	grid       *model.SlotGrid
	maxRun     int
	resourceID string
	indices    []int // всегда отсортированы

	changes observe.Observers[model.Selection]
}

// NewController создаёт контроллер выбора поверх сетки
func NewController(grid *model.SlotGrid, maxRun int) *Controller {
	if maxRun <= 0 {
		maxRun = DefaultMaxRun
	}
	return &Controller{
		grid:   grid,
		maxRun: maxRun,
	}
}

// MaxRun возвращает ограничение длины выбора
func (c *Controller) MaxRun() int {
	return c.maxRun
}

// Selection возвращает копию текущего выбора
func (c *Controller) Selection() model.Selection {
	if len(c.indices) == 0 {
		return model.Selection{}
	}
	return model.Selection{
		ResourceID: c.resourceID,
		Indices:    append([]int(nil), c.indices...),
	}
}

// OnChange подписывает на изменения выбора
func (c *Controller) OnChange(fn func(model.Selection)) func() {
	return c.changes.Subscribe(fn)
}

// Select добавляет ячейку в выбор.
// Несмежная ячейка, ячейка другого ресурса или попытка выйти за лимит
// сбрасывают текущий выбор и начинают новый с этой ячейки.
func (c *Controller) Select(resourceID string, index int) {
	if !c.grid.State(resourceID, index).Selectable() {
		return
	}
	if c.contains(resourceID, index) {
		return
	}

	switch {
	case len(c.indices) == 0:
		c.restartAt(resourceID, index)
	case resourceID != c.resourceID || !c.adjacent(index):
		c.restartAt(resourceID, index)
	case len(c.indices) < c.maxRun:
		c.add(index)
	default:
		// Выбор уже максимальной длины: начинаем заново, а не отклоняем нажатие
		c.restartAt(resourceID, index)
	}

	c.changes.Notify(c.Selection())
}

// Deselect убирает ячейку из выбора.
// Если отрезок распался на две части, остаётся большая; при равенстве остаётся левая.
func (c *Controller) Deselect(resourceID string, index int) {
	pos := c.position(resourceID, index)
	if pos < 0 {
		return
	}

	c.grid.SetState(resourceID, index, model.SlotAvailable)
	c.indices = append(c.indices[:pos:pos], c.indices[pos+1:]...)

	if !contiguous(c.indices) {
		leftCount := pos
		rightCount := len(c.indices) - leftCount

		if leftCount < rightCount {
			c.release(c.indices[:leftCount])
			c.indices = append([]int(nil), c.indices[leftCount:]...)
		} else {
			c.release(c.indices[leftCount:])
			c.indices = c.indices[:leftCount]
		}
	}

	if len(c.indices) == 0 {
		c.resourceID = ""
	}

	c.changes.Notify(c.Selection())
}

// Toggle выбирает свободную ячейку или снимает выбор с выбранной
func (c *Controller) Toggle(resourceID string, index int) {
	if c.contains(resourceID, index) {
		c.Deselect(resourceID, index)
		return
	}
	c.Select(resourceID, index)
}

// Clear сбрасывает выбор целиком, например после неудачной отправки заявки
func (c *Controller) Clear() {
	if len(c.indices) == 0 {
		return
	}
	c.release(c.indices)
	c.indices = nil
	c.resourceID = ""
	c.changes.Notify(model.Selection{})
}

func (c *Controller) restartAt(resourceID string, index int) {
	c.release(c.indices)
	c.resourceID = resourceID
	c.indices = []int{index}
	c.grid.SetState(resourceID, index, model.SlotReserving)
}

func (c *Controller) add(index int) {
	c.grid.SetState(c.resourceID, index, model.SlotReserving)
	c.indices = append(c.indices, index)
	sort.Ints(c.indices)
}

func (c *Controller) release(indices []int) {
	for _, i := range indices {
		c.grid.SetState(c.resourceID, i, model.SlotAvailable)
	}
}

// Выбор непрерывен, поэтому смежность проверяется только по краям
func (c *Controller) adjacent(index int) bool {
	first, last := c.indices[0], c.indices[len(c.indices)-1]
	return index >= first-1 && index <= last+1
}

func (c *Controller) contains(resourceID string, index int) bool {
	return c.position(resourceID, index) >= 0
}

func (c *Controller) position(resourceID string, index int) int {
	if resourceID != c.resourceID {
		return -1
	}
	for i, v := range c.indices {
		if v == index {
			return i
		}
	}
	return -1
}

func contiguous(indices []int) bool {
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			return false
		}
	}
	return true
}

package model

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/observe"
)

// SlotChange событие изменения одной ячейки сетки
type SlotChange struct {
	ResourceID string
	Index      int
	From       SlotState
	To         SlotState
}

// SlotGrid хранит доступность ресурсов на временном окне.
// У всех ресурсов одинаковое количество слотов фиксированной ширины.
// Сетка принадлежит одному экрану бронирования и не защищена блокировками.
type SlotGrid struct {
	start     time.Time
	slotWidth time.Duration
	length    int
	order     []string
	slots     map[string][]SlotState
	names     map[string]string

	changes observe.Observers[SlotChange]
}

// NewSlotGrid создаёт сетку, где все слоты свободны
func NewSlotGrid(start time.Time, slotWidth time.Duration, length int, resourceIDs ...string) *SlotGrid {
	if length < 0 {
		panic(fmt.Sprintf("slot grid: negative length %d", length))
	}
	if slotWidth <= 0 {
		panic(fmt.Sprintf("slot grid: non-positive slot width %s", slotWidth))
	}

	g := &SlotGrid{
		start:     start,
		slotWidth: slotWidth,
		length:    length,
		slots:     make(map[string][]SlotState, len(resourceIDs)),
		names:     make(map[string]string, len(resourceIDs)),
	}
	for _, id := range resourceIDs {
		g.AddResource(id, id)
	}
	return g
}

// AddResource добавляет ресурс со свободными слотами; повторное добавление меняет только имя
func (g *SlotGrid) AddResource(id, name string) {
	g.names[id] = name
	if _, ok := g.slots[id]; ok {
		return
	}
	row := make([]SlotState, g.length)
	for i := range row {
		row[i] = SlotAvailable
	}
	g.slots[id] = row
	g.order = append(g.order, id)
}

// Resources возвращает идентификаторы ресурсов в порядке добавления
func (g *SlotGrid) Resources() []string {
	return append([]string(nil), g.order...)
}

// ResourceName возвращает отображаемое имя ресурса
func (g *SlotGrid) ResourceName(id string) string {
	if name, ok := g.names[id]; ok && name != "" {
		return name
	}
	return id
}

// Has проверяет наличие ресурса в сетке
func (g *SlotGrid) Has(id string) bool {
	_, ok := g.slots[id]
	return ok
}

// Len возвращает количество слотов у каждого ресурса
func (g *SlotGrid) Len() int {
	return g.length
}

func (g *SlotGrid) Start() time.Time {
	return g.start
}

func (g *SlotGrid) SlotWidth() time.Duration {
	return g.slotWidth
}

// SlotStart возвращает время начала слота
func (g *SlotGrid) SlotStart(index int) time.Time {
	g.checkIndex(index)
	return g.start.Add(time.Duration(index) * g.slotWidth)
}

// SlotEnd возвращает время окончания слота
func (g *SlotGrid) SlotEnd(index int) time.Time {
	g.checkIndex(index)
	return g.start.Add(time.Duration(index+1) * g.slotWidth)
}

// IndexOf возвращает индекс слота, содержащего момент t
func (g *SlotGrid) IndexOf(t time.Time) (int, bool) {
	if t.Before(g.start) {
		return 0, false
	}
	idx := int(t.Sub(g.start) / g.slotWidth)
	if idx >= g.length {
		return 0, false
	}
	return idx, true
}

// State возвращает состояние ячейки
func (g *SlotGrid) State(resourceID string, index int) SlotState {
	return g.row(resourceID, index)[index]
}

// SetState меняет состояние ячейки без проверки ограничений выбора
func (g *SlotGrid) SetState(resourceID string, index int, state SlotState) {
	row := g.row(resourceID, index)
	prev := row[index]
	if prev == state {
		return
	}
	row[index] = state
	g.changes.Notify(SlotChange{ResourceID: resourceID, Index: index, From: prev, To: state})
}

// GetRun возвращает максимальный непрерывный отрезок индексов в состоянии Reserving
func (g *SlotGrid) GetRun(resourceID string) []int {
	row := g.row(resourceID, 0)

	bestStart, bestLen := 0, 0
	curStart, curLen := 0, 0
	for i, st := range row {
		if st != SlotReserving {
			curLen = 0
			continue
		}
		if curLen == 0 {
			curStart = i
		}
		curLen++
		if curLen > bestLen {
			bestStart, bestLen = curStart, curLen
		}
	}

	if bestLen == 0 {
		return nil
	}
	run := make([]int, bestLen)
	for i := range run {
		run[i] = bestStart + i
	}
	return run
}

// OnChange подписывает на изменения ячеек
func (g *SlotGrid) OnChange(fn func(SlotChange)) func() {
	return g.changes.Subscribe(fn)
}

// Выход за границы сетки - ошибка программиста
func (g *SlotGrid) row(resourceID string, index int) []SlotState {
	row, ok := g.slots[resourceID]
	if !ok {
		panic(fmt.Sprintf("slot grid: unknown resource %q", resourceID))
	}
	if g.length > 0 || index != 0 {
		g.checkIndex(index)
	}
	return row
}

func (g *SlotGrid) checkIndex(index int) {
	if index < 0 || index >= g.length {
		panic(fmt.Sprintf("slot grid: index %d out of range [0,%d)", index, g.length))
	}
}

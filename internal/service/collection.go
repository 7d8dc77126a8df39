package service

import (
	"sort"
	"sync"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/observe"
)

// Collection локальный кеш живых бронирований одной области (пользователь, смена сотрудника).
// Upsert, Remove и ReplaceAll - единственные способы его изменить; наружу отдаются копии.
type Collection struct {
	mu    sync.RWMutex
	items map[int64]*model.Reservation // reservationID -> snapshot

	changes observe.Observers[[]*model.Reservation]
}

func NewCollection() *Collection {
	return &Collection{
		items: make(map[int64]*model.Reservation),
	}
}

// Upsert заменяет или добавляет бронирование.
// Завершённое бронирование из кеша удаляется.
func (c *Collection) Upsert(res *model.Reservation) {
	c.mu.Lock()
	if res.State.Terminal() {
		delete(c.items, res.ID)
	} else {
		c.items[res.ID] = res.Clone()
	}
	snapshot := c.listLocked()
	c.mu.Unlock()

	c.changes.Notify(snapshot)
}

// Remove удаляет бронирование; повторный вызов ничего не меняет.
// Возвращает true, если запись была удалена.
func (c *Collection) Remove(id int64) bool {
	c.mu.Lock()
	if _, exists := c.items[id]; !exists {
		c.mu.Unlock()
		return false
	}
	delete(c.items, id)
	snapshot := c.listLocked()
	c.mu.Unlock()

	c.changes.Notify(snapshot)
	return true
}

// ReplaceAll заменяет содержимое результатом полного обновления
func (c *Collection) ReplaceAll(reservations []*model.Reservation) {
	items := make(map[int64]*model.Reservation, len(reservations))
	for _, r := range reservations {
		if r.State.Terminal() {
			continue
		}
		items[r.ID] = r.Clone()
	}

	c.mu.Lock()
	c.items = items
	snapshot := c.listLocked()
	c.mu.Unlock()

	c.changes.Notify(snapshot)
}

// Get возвращает копию бронирования по ID
func (c *Collection) Get(id int64) (*model.Reservation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return res.Clone(), true
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// List возвращает все бронирования по времени начала
func (c *Collection) List() []*model.Reservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listLocked()
}

// Upcoming подтверждённые бронирования
func (c *Collection) Upcoming() []*model.Reservation {
	return c.filter(model.ReservationConfirmed)
}

// Active бронирования, по которым выполнен check-in
func (c *Collection) Active() []*model.Reservation {
	return c.filter(model.ReservationCheckedIn)
}

// Drafts неподтверждённые черновики
func (c *Collection) Drafts() []*model.Reservation {
	return c.filter(model.ReservationDraft)
}

// OnChange подписывает на изменения; обработчик получает полный список
func (c *Collection) OnChange(fn func([]*model.Reservation)) func() {
	return c.changes.Subscribe(fn)
}

func (c *Collection) filter(state model.ReservationState) []*model.Reservation {
	var result []*model.Reservation
	for _, r := range c.List() {
		if r.State == state {
			result = append(result, r)
		}
	}
	return result
}

func (c *Collection) listLocked() []*model.Reservation {
	list := make([]*model.Reservation, 0, len(c.items))
	for _, r := range c.items {
		list = append(list, r.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].TimeRange.Start.Equal(list[j].TimeRange.Start) {
			return list[i].TimeRange.Start.Before(list[j].TimeRange.Start)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

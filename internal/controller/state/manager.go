package state

import (
	"sync"

	"github.com/Freeeeeet/space_booking_bot/internal/service"
)

// Manager управляет состояниями пользователей и живыми бронированиями бота
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData

	lifecycles map[int64]*TrackedLifecycle // reservationID -> lifecycle
}

// TrackedLifecycle жизненный цикл бронирования и сообщение, в котором он показан
type TrackedLifecycle struct {
	Lifecycle *service.Lifecycle
	ChatID    int64
	MessageID int
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states:     make(map[int64]*UserData),
		lifecycles: make(map[int64]*TrackedLifecycle),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние пользователя
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.userLocked(telegramID).State = state
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (interface{}, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		value, ok := userData.Data[key]
		return value, ok
	}
	return nil, false
}

// SetData устанавливает временные данные пользователя
func (sm *Manager) SetData(telegramID int64, key string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.userLocked(telegramID).Data[key] = value
}

// ClearState очищает диалоговое состояние и данные, экраны не трогает
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if userData, exists := sm.states[telegramID]; exists {
		userData.State = StateNone
		userData.Data = make(map[string]interface{})
	}
}

// View возвращает открытый экран выбора слотов
func (sm *Manager) View(telegramID int64) *BookingView {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.View
	}
	return nil
}

// SetView заменяет экран выбора слотов
func (sm *Manager) SetView(telegramID int64, view *BookingView) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.userLocked(telegramID).View = view
}

// Bookings возвращает открытый экран бронирований
func (sm *Manager) Bookings(telegramID int64) *BookingsView {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.Bookings
	}
	return nil
}

// SetBookings заменяет экран бронирований; предыдущий закрывается
func (sm *Manager) SetBookings(telegramID int64, view *BookingsView) {
	sm.mu.Lock()
	userData := sm.userLocked(telegramID)
	prev := userData.Bookings
	userData.Bookings = view
	sm.mu.Unlock()

	if prev != nil && prev != view {
		prev.Close()
	}
}

// Reset закрывает все экраны пользователя и очищает его состояние
func (sm *Manager) Reset(telegramID int64) {
	sm.mu.Lock()
	userData, exists := sm.states[telegramID]
	delete(sm.states, telegramID)
	sm.mu.Unlock()

	if exists && userData.Bookings != nil {
		userData.Bookings.Close()
	}
}

// Track запоминает жизненный цикл бронирования
func (sm *Manager) Track(t *TrackedLifecycle) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.lifecycles[t.Lifecycle.ID()] = t
}

// Lifecycle возвращает отслеживаемый жизненный цикл
func (sm *Manager) Lifecycle(reservationID int64) *TrackedLifecycle {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.lifecycles[reservationID]
}

// Untrack прекращает отслеживание и останавливает таймер
func (sm *Manager) Untrack(reservationID int64) {
	sm.mu.Lock()
	t, exists := sm.lifecycles[reservationID]
	delete(sm.lifecycles, reservationID)
	sm.mu.Unlock()

	if exists {
		t.Lifecycle.Stop()
	}
}

// Tracked возвращает количество отслеживаемых бронирований
func (sm *Manager) Tracked() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return len(sm.lifecycles)
}

func (sm *Manager) userLocked(telegramID int64) *UserData {
	userData, exists := sm.states[telegramID]
	if !exists {
		userData = &UserData{
			State: StateNone,
			Data:  make(map[string]interface{}),
		}
		sm.states[telegramID] = userData
	}
	return userData
}

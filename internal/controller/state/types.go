package state

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/selection"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/google/uuid"
)

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Сотрудник вводит имена гостей для drop-in
	StateDropInGuestNames UserState = "dropin_guest_names"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State UserState
	Data  map[string]interface{} // Временные данные для текущего диалога

	View     *BookingView
	Bookings *BookingsView
}

// BookingView экран выбора слотов в одном чате.
// Сетка и контроллер выбора не потокобезопасны, поэтому доступ к ним только под Lock.
type BookingView struct {
	mu sync.Mutex

	Kind      model.ResourceKind
	Date      time.Time
	DropIn    bool
	Guests    []model.UserRef
	Grid      *model.SlotGrid
	Selection *selection.Controller
	Page      int // страница клавиатуры сетки
	MessageID int

	requestKey uuid.UUID
}

// NewBookingView создаёт экран над свежей сеткой доступности
func NewBookingView(kind model.ResourceKind, date time.Time, grid *model.SlotGrid, maxRun int) *BookingView {
	v := &BookingView{
		Kind:      kind,
		Date:      date,
		Grid:      grid,
		Selection: selection.NewController(grid, maxRun),
	}
	// Контроллер уведомляет синхронно, то есть под Lock вызывающего
	v.Selection.OnChange(func(model.Selection) {
		v.requestKey = uuid.Nil
	})
	return v
}

// RequestKey ключ идемпотентности текущего выбора.
// Повторная отправка того же выбора получает тот же ключ; вызывать под Lock.
func (v *BookingView) RequestKey() uuid.UUID {
	if v.requestKey == uuid.Nil {
		v.requestKey = uuid.New()
	}
	return v.requestKey
}

func (v *BookingView) Lock() {
	v.mu.Lock()
}

func (v *BookingView) Unlock() {
	v.mu.Unlock()
}

// BookingsView экран "мои бронирования": кеш и фоновое обновление
type BookingsView struct {
	Collection *service.Collection
	Scope      model.ReservationScope
	MessageID  int

	cancel context.CancelFunc
	unsub  []func()
}

// NewBookingsView создаёт экран; cancel останавливает его фоновый опрос
func NewBookingsView(scope model.ReservationScope, cancel context.CancelFunc) *BookingsView {
	return &BookingsView{
		Collection: service.NewCollection(),
		Scope:      scope,
		cancel:     cancel,
	}
}

// OnClose регистрирует отписку, которая выполнится при закрытии экрана
func (v *BookingsView) OnClose(unsubscribe func()) {
	v.unsub = append(v.unsub, unsubscribe)
}

// Close останавливает опрос и снимает подписки
func (v *BookingsView) Close() {
	if v.cancel != nil {
		v.cancel()
	}
	for _, fn := range v.unsub {
		fn()
	}
	v.unsub = nil
}

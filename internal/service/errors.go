package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
)

// Ошибки использования: возвращаются вызывающему коду, автоматически не повторяются
var (
	ErrEmptySelection      = errors.New("selection is empty")
	ErrNoRequester         = errors.New("no requester")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceClosed      = errors.New("resource is not reservable")
	ErrSlotConflict        = errors.New("time range is already reserved")
	ErrStaleState          = errors.New("reservation state changed on server")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotStaff            = errors.New("user is not staff")
)

// InvalidTransitionError попытка перехода, который запрещён машиной состояний
type InvalidTransitionError struct {
	Transition string
	From       model.ReservationState
	Reason     string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s from %s: %s", e.Transition, e.From, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s from %s", e.Transition, e.From)
}

// AlreadyTerminalError команда пришла для уже завершённого бронирования.
// Это безопасная гонка: логируется, пользователю не показывается.
type AlreadyTerminalError struct {
	Transition string
	State      model.ReservationState
}

func (e *AlreadyTerminalError) Error() string {
	return fmt.Sprintf("%s ignored: reservation already %s", e.Transition, e.State)
}

// IsBenign сообщает, что ошибку можно проглотить
func IsBenign(err error) bool {
	var terminal *AlreadyTerminalError
	return errors.As(err, &terminal)
}

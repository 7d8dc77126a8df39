package model

import (
	"time"

	"github.com/google/uuid"
)

type ReservationState string

const (
	ReservationDraft      ReservationState = "draft"     // Ожидает подтверждения пользователем
	ReservationConfirmed  ReservationState = "confirmed" // Подтверждено
	ReservationCheckedIn  ReservationState = "checked_in"
	ReservationCheckedOut ReservationState = "checked_out"
	ReservationCancelled  ReservationState = "cancelled"
)

// Terminal сообщает, что из состояния больше нет переходов
func (s ReservationState) Terminal() bool {
	return s == ReservationCheckedOut || s == ReservationCancelled
}

// ActiveReservationStates состояния, которые занимают ресурс
var ActiveReservationStates = []ReservationState{
	ReservationDraft,
	ReservationConfirmed,
	ReservationCheckedIn,
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps проверяет пересечение полуоткрытых интервалов
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Duration возвращает длительность интервала
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// ReservationRequest заявка, собранная из выбора пользователя
type ReservationRequest struct {
	Key        uuid.UUID `json:"key"` // ключ идемпотентности
	ResourceID string    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Requesters []UserRef `json:"requesters"`
}

type Reservation struct {
	ID         int64            `json:"id"`
	RequestKey uuid.UUID        `json:"request_key"`
	Resource   ResourceRef      `json:"resource"`
	TimeRange  TimeRange        `json:"time_range"`
	Requesters []UserRef        `json:"requesters"`
	State      ReservationState `json:"state"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Clone возвращает глубокую копию, чтобы кеши не делили слайсы с вызывающим кодом
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	c.Requesters = append([]UserRef(nil), r.Requesters...)
	return &c
}

// HasRequester проверяет, входит ли пользователь в заявителей
func (r *Reservation) HasRequester(userID int64) bool {
	for _, u := range r.Requesters {
		if u.ID == userID {
			return true
		}
	}
	return false
}

package model

import "time"

type ResourceKind string

const (
	ResourceRoom ResourceKind = "room"
	ResourceSeat ResourceKind = "seat"
	ResourceXL   ResourceKind = "xl" // drop-in слоты XL
)

type Resource struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Kind       ResourceKind `json:"kind"`
	Reservable bool         `json:"reservable"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Ref возвращает краткую ссылку на ресурс
func (r *Resource) Ref() ResourceRef {
	return ResourceRef{ID: r.ID, Name: r.Name, Kind: r.Kind}
}

type ResourceRef struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind ResourceKind `json:"kind"`
}

// AvailabilityScope определяет, какие ресурсы и для кого показывать в сетке
type AvailabilityScope struct {
	Kind        ResourceKind
	RequesterID int64 // 0 - без учёта собственных бронирований
}

// ReservationScope определяет набор бронирований для обновления
type ReservationScope struct {
	UserID int64
	All    bool // все активные бронирования (для сотрудников)
}

package model

import (
	"strings"
	"time"
)

type User struct {
	ID         int64     `json:"id"`
	TelegramID *int64    `json:"telegram_id"` // nil для гостей, записанных сотрудником
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsStaff    bool      `json:"is_staff"`
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName возвращает имя для отображения
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "guest"
}

// Ref возвращает ссылку на пользователя для бронирований
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.DisplayName()}
}

// UserRef минимальные данные о заявителе
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

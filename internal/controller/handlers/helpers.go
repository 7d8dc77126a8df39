package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
)

var (
	errPastDay     = errors.New("day has passed")
	errTooFarAhead = errors.New("day is too far ahead")
)

// commandArgs возвращает аргументы после команды: "/book tomorrow" -> ["tomorrow"]
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// parseDay разбирает день для сетки: пусто, today, tomorrow или YYYY-MM-DD
func parseDay(arg string, today time.Time) (time.Time, error) {
	var day time.Time

	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		day = today
	case "tomorrow":
		day = today.AddDate(0, 0, 1)
	default:
		parsed, err := time.ParseInLocation("2006-01-02", arg, today.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("parse day %q: %w", arg, err)
		}
		day = parsed
	}

	if day.Before(today) {
		return time.Time{}, errPastDay
	}
	if day.After(today.AddDate(0, 0, MaxDaysAhead)) {
		return time.Time{}, errTooFarAhead
	}
	return day, nil
}

// parseKind разбирает тип ресурса для /grid
func parseKind(arg string) (model.ResourceKind, bool) {
	switch strings.ToLower(arg) {
	case "", "room", "rooms":
		return model.ResourceRoom, true
	case "seat", "seats":
		return model.ResourceSeat, true
	case "xl", "dropin":
		return model.ResourceXL, true
	default:
		return "", false
	}
}

// parseGuestNames разбирает имена гостей, разделённые запятыми или переносами строк
func parseGuestNames(text string) ([]string, error) {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	var names []string
	seen := make(map[string]bool)
	for _, p := range parts {
		name := strings.Join(strings.Fields(p), " ")
		if name == "" {
			continue
		}
		length := utf8.RuneCountInString(name)
		if length < GuestNameMinLength || length > GuestNameMaxLength {
			return nil, fmt.Errorf("guest name %q must be %d to %d characters", name, GuestNameMinLength, GuestNameMaxLength)
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, errors.New("no guest names")
	}
	if len(names) > MaxGuests {
		return nil, fmt.Errorf("at most %d guests per booking", MaxGuests)
	}
	return names, nil
}

// dayErrorText текст ошибки разбора дня для пользователя
func dayErrorText(err error) string {
	switch {
	case errors.Is(err, errPastDay):
		return "❌ That day has passed."
	case errors.Is(err, errTooFarAhead):
		return fmt.Sprintf("❌ You can book up to %d days ahead.", MaxDaysAhead)
	default:
		return "❌ Use today, tomorrow or a date like 2026-10-19."
	}
}

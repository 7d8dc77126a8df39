package callbacktypes

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Форматы callback data. Telegram ограничивает их 64 байтами.
const (
	Noop = "noop"

	Cell        = "cell:"      // cell:SN135:4
	GridDay     = "grid_day:"  // grid_day:2026-10-19
	GridPage    = "grid_page:" // grid_page:1
	GridSubmit  = "grid_submit"
	GridClear   = "grid_clear"
	GridRefresh = "grid_refresh"

	ResConfirm  = "res_confirm:"  // res_confirm:123
	ResCancel   = "res_cancel:"   // res_cancel:123
	ResCheckIn  = "res_checkin:"  // res_checkin:123
	ResCheckOut = "res_checkout:" // res_checkout:123

	BookingsRefresh = "bookings_refresh"
)

const dayLayout = "2006-01-02"

// CellData кодирует нажатие на ячейку сетки
func CellData(resourceID string, index int) string {
	return fmt.Sprintf("%s%s:%d", Cell, resourceID, index)
}

// ParseCell разбирает cell:<resource>:<index>
func ParseCell(data string) (string, int, error) {
	rest, ok := strings.CutPrefix(data, Cell)
	if !ok {
		return "", 0, fmt.Errorf("parse cell %q: missing prefix", data)
	}

	sep := strings.LastIndex(rest, ":")
	if sep <= 0 {
		return "", 0, fmt.Errorf("parse cell %q: invalid format", data)
	}

	index, err := strconv.Atoi(rest[sep+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("parse cell %q: invalid index", data)
	}
	return rest[:sep], index, nil
}

// ReservationData кодирует действие над бронированием
func ReservationData(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// ParseReservation извлекает ID бронирования
func ParseReservation(prefix, data string) (int64, error) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, fmt.Errorf("parse reservation %q: missing prefix", data)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse reservation %q: %w", data, err)
	}
	return id, nil
}

// PageData кодирует переход на страницу сетки
func PageData(page int) string {
	return GridPage + strconv.Itoa(page)
}

// ParsePage извлекает номер страницы сетки
func ParsePage(data string) (int, error) {
	rest, ok := strings.CutPrefix(data, GridPage)
	if !ok {
		return 0, fmt.Errorf("parse page %q: missing prefix", data)
	}
	page, err := strconv.Atoi(rest)
	if err != nil || page < 0 {
		return 0, fmt.Errorf("parse page %q: invalid number", data)
	}
	return page, nil
}

// DayData кодирует переход на другой день
func DayData(day time.Time) string {
	return GridDay + day.Format(dayLayout)
}

// ParseDay разбирает grid_day:<date> в указанной зоне
func ParseDay(data string, loc *time.Location) (time.Time, error) {
	rest, ok := strings.CutPrefix(data, GridDay)
	if !ok {
		return time.Time{}, fmt.Errorf("parse day %q: missing prefix", data)
	}
	day, err := time.ParseInLocation(dayLayout, rest, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", data, err)
	}
	return day, nil
}

package common

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/go-telegram/bot/models"
)

// GridRowsPerPage строк сетки на одной странице клавиатуры
const GridRowsPerPage = 8

// GridPages возвращает количество страниц сетки
func GridPages(grid *model.SlotGrid) int {
	if grid.Len() == 0 {
		return 1
	}
	return (grid.Len() + GridRowsPerPage - 1) / GridRowsPerPage
}

// BuildGridScreen формирует экран выбора слотов.
// Вызывать под блокировкой view.
func BuildGridScreen(view *state.BookingView, page int, today time.Time, maxRun int, dropInDuration time.Duration) (string, *models.InlineKeyboardMarkup) {
	grid := view.Grid
	sel := view.Selection.Selection()

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>%s</b> · %s\n", formatting.GetResourceKindTitle(view.Kind), formatting.FormatDate(view.Date))

	if view.DropIn {
		fmt.Fprintf(&sb, "Drop-in for <b>%s</b>. The booking lasts %s from the first selected slot.\n",
			html.EscapeString(joinNames(view.Guests)), formatting.FormatDuration(dropInDuration))
	} else {
		fmt.Fprintf(&sb, "Pick up to %s in a row in one room.\n", formatting.PluralizeSlots(maxRun))
	}

	if !sel.Empty() {
		fmt.Fprintf(&sb, "\nSelected: <b>%s</b> %s (%s)\n",
			html.EscapeString(grid.ResourceName(sel.ResourceID)),
			formatting.FormatTimeRange(grid.SlotStart(sel.First()), grid.SlotEnd(sel.Last())),
			formatting.PluralizeSlots(sel.Len()),
		)
	}

	sb.WriteString("\n")
	sb.WriteString(gridLegend())

	return sb.String(), buildGridKeyboard(view, page, today, sel)
}

func buildGridKeyboard(view *state.BookingView, page int, today time.Time, sel model.Selection) *models.InlineKeyboardMarkup {
	grid := view.Grid
	resources := grid.Resources()
	kb := keyboard.NewBuilder()

	pages := GridPages(grid)
	if page < 0 || page >= pages {
		page = 0
	}

	// Заголовок: колонка времени и по колонке на ресурс
	header := []models.InlineKeyboardButton{keyboard.NoopButton("🕒")}
	for _, id := range resources {
		header = append(header, keyboard.NoopButton(grid.ResourceName(id)))
	}
	kb.Row(header...)

	from := page * GridRowsPerPage
	to := min(from+GridRowsPerPage, grid.Len())
	for i := from; i < to; i++ {
		row := []models.InlineKeyboardButton{keyboard.NoopButton(formatting.FormatTime(grid.SlotStart(i)))}
		for _, id := range resources {
			slot := grid.State(id, i)
			display := formatting.GetSlotStateDisplay(slot)
			data := callbacktypes.Noop
			if slot.Selectable() {
				data = callbacktypes.CellData(id, i)
			}
			row = append(row, keyboard.Button(display.Emoji, data))
		}
		kb.Row(row...)
	}

	if pages > 1 {
		var nav []models.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, keyboard.Button("⬆️ Earlier", callbacktypes.PageData(page-1)))
		}
		if page < pages-1 {
			nav = append(nav, keyboard.Button("⬇️ Later", callbacktypes.PageData(page+1)))
		}
		kb.Row(nav...)
	}

	kb.Row(keyboard.DayNavigationRow(view.Date, view.Date.After(formatting.StartOfDay(today)))...)

	if !sel.Empty() {
		label := "📝 Reserve"
		if view.DropIn {
			label = "📝 Reserve for guests"
		}
		kb.Row(keyboard.SubmitRow(label)...)
	}

	return kb.Build()
}

func gridLegend() string {
	states := []model.SlotState{
		model.SlotAvailable,
		model.SlotReserving,
		model.SlotBooked,
		model.SlotUnavailable,
		model.SlotSubjectToOtherReservation,
	}

	parts := make([]string, 0, len(states))
	for _, s := range states {
		d := formatting.GetSlotStateDisplay(s)
		parts = append(parts, d.Emoji+" "+d.Text)
	}
	return strings.Join(parts, "\n")
}

// BuildReservationScreen формирует карточку одного бронирования.
// countdown показывается только для черновика.
func BuildReservationScreen(res *model.Reservation, countdown string, checkinDeadline time.Time) (string, *models.InlineKeyboardMarkup) {
	display := formatting.GetReservationStateDisplay(res.State)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <b>%s</b>\n\n", display.Emoji, display.Text)
	sb.WriteString(describeReservation(res))

	kb := keyboard.NewBuilder()
	switch res.State {
	case model.ReservationDraft:
		fmt.Fprintf(&sb, "\n\n⏳ Confirm within <b>%s</b> or it will be released.", countdown)
		kb.Row(keyboard.ConfirmButton(res.ID), keyboard.CancelButton(res.ID))
	case model.ReservationConfirmed:
		fmt.Fprintf(&sb, "\n\n📍 Check in between %s.",
			formatting.FormatTimeRange(res.TimeRange.Start, checkinDeadline))
		kb.Row(keyboard.CheckInButton(res.ID), keyboard.CancelButton(res.ID))
	case model.ReservationCheckedIn:
		fmt.Fprintf(&sb, "\n\n🚪 Check out when you leave, by %s.", formatting.FormatTime(res.TimeRange.End))
		kb.Row(keyboard.CheckOutButton(res.ID))
	default:
		return sb.String(), keyboard.Empty()
	}

	return sb.String(), kb.Build()
}

// BuildBookingsScreen формирует список живых бронирований
func BuildBookingsScreen(title string, upcoming, active, drafts []*model.Reservation, grace time.Duration) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	kb := keyboard.NewBuilder()

	total := len(upcoming) + len(active) + len(drafts)
	fmt.Fprintf(&sb, "📅 <b>%s</b> (%s)\n", title, formatting.PluralizeReservations(total))

	if total == 0 {
		sb.WriteString("\nNothing booked yet. Use /book to reserve a room.")
	}

	section := func(title string, list []*model.Reservation, buttons func(*model.Reservation) []models.InlineKeyboardButton) {
		if len(list) == 0 {
			return
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", title)
		for i, res := range list {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, shortReservation(res, grace))
			kb.Row(buttons(res)...)
		}
	}

	section("Active", active, func(res *model.Reservation) []models.InlineKeyboardButton {
		return []models.InlineKeyboardButton{labelled(keyboard.CheckOutButton(res.ID), res)}
	})
	section("Upcoming", upcoming, func(res *model.Reservation) []models.InlineKeyboardButton {
		return []models.InlineKeyboardButton{
			labelled(keyboard.CheckInButton(res.ID), res),
			keyboard.CancelButton(res.ID),
		}
	})
	section("Awaiting confirmation", drafts, func(res *model.Reservation) []models.InlineKeyboardButton {
		return []models.InlineKeyboardButton{
			labelled(keyboard.ConfirmButton(res.ID), res),
			keyboard.CancelButton(res.ID),
		}
	})

	kb.Row(keyboard.Button("🔄 Refresh", callbacktypes.BookingsRefresh))
	return sb.String(), kb.Build()
}

func describeReservation(res *model.Reservation) string {
	return fmt.Sprintf("🏠 %s\n🗓 %s · %s\n👥 %s",
		html.EscapeString(res.Resource.Name),
		formatting.FormatDate(res.TimeRange.Start),
		formatting.FormatTimeRange(res.TimeRange.Start, res.TimeRange.End),
		html.EscapeString(joinNames(res.Requesters)),
	)
}

func shortReservation(res *model.Reservation, grace time.Duration) string {
	line := fmt.Sprintf("%s · %s %s",
		html.EscapeString(res.Resource.Name),
		formatting.FormatDate(res.TimeRange.Start),
		formatting.FormatTimeRange(res.TimeRange.Start, res.TimeRange.End),
	)
	if res.State == model.ReservationConfirmed {
		line += fmt.Sprintf(" (check in by %s)", formatting.FormatTime(service.CheckinDeadline(res.TimeRange, grace)))
	}
	return line
}

// labelled добавляет к кнопке время бронирования, чтобы ряды различались
func labelled(b models.InlineKeyboardButton, res *model.Reservation) models.InlineKeyboardButton {
	b.Text = fmt.Sprintf("%s %s", b.Text, formatting.FormatTime(res.TimeRange.Start))
	return b
}

func joinNames(users []model.UserRef) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return strings.Join(names, ", ")
}

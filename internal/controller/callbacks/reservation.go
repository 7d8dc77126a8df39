package callbacks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Reservation Card Handlers
// ========================

// startDraft отправляет карточку нового черновика и запускает его таймер
func startDraft(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, chatID int64, res *model.Reservation) (*state.TrackedLifecycle, error) {
	lc := service.NewLifecycle(res, h.Transport, h.Clock, h.Engine.Lifecycle, h.Logger)

	text, kb := common.BuildReservationScreen(res, lc.Countdown(), lc.CheckinDeadline())
	msgID, err := common.SendScreen(ctx, b, chatID, text, kb)
	if err != nil {
		return nil, fmt.Errorf("send reservation %d: %w", res.ID, err)
	}

	tracked := &state.TrackedLifecycle{Lifecycle: lc, ChatID: chatID, MessageID: msgID}
	attach(b, h, tracked)
	h.StateManager.Track(tracked)
	lc.Start(h.BackgroundCtx)
	return tracked, nil
}

// attach перерисовывает карточку при каждом изменении бронирования
func attach(b *bot.Bot, h *callbacktypes.Handler, t *state.TrackedLifecycle) {
	lc := t.Lifecycle

	render := func(res *model.Reservation, countdown string) {
		text, kb := common.BuildReservationScreen(res, countdown, lc.CheckinDeadline())
		if err := common.EditScreen(h.BackgroundCtx, b, t.ChatID, t.MessageID, text, kb); err != nil {
			h.Logger.Warn("Failed to update reservation card",
				zap.Int64("reservation_id", res.ID),
				zap.Error(err))
		}
	}

	lc.OnCountdown(func(countdown string) {
		res := lc.Reservation()
		if res.State == model.ReservationDraft {
			render(res, countdown)
		}
	})
	lc.OnChange(func(res *model.Reservation) {
		render(res, lc.Countdown())
		if res.State.Terminal() {
			h.StateManager.Untrack(res.ID)
		}
	})
}

// HandleReservationAction выполняет confirm, cancel, check-in или check-out
func HandleReservationAction(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		prefix, act := reservationAction(callback.Data)
		if act == nil {
			common.HandleError(hc, common.ErrInvalidFormat, "reservation_action")
			return
		}

		id, err := callbacktypes.ParseReservation(prefix, callback.Data)
		if err != nil {
			common.HandleError(hc, common.ErrInvalidFormat, "parse_reservation")
			return
		}

		lc, tracked, err := lifecycleFor(hc, id)
		if err != nil {
			common.HandleError(hc, err, "find_reservation")
			return
		}

		err = act(lc, ctx)
		switch {
		case err == nil:
			hc.Answer("✅ Done")
		case service.IsBenign(err):
			h.Logger.Info("Reservation action ignored",
				zap.Int64("reservation_id", id),
				zap.Error(err))
			hc.Answer("")
		case errors.Is(err, service.ErrStaleState), errors.Is(err, service.ErrReservationNotFound):
			h.Logger.Info("Reservation changed on server, reconciling",
				zap.Int64("reservation_id", id),
				zap.Error(err))
			reconcileOne(hc, lc)
			hc.AnswerAlert(common.ErrorMessage(err))
		default:
			common.HandleError(hc, err, "reservation_action")
			return
		}

		res := lc.Reservation()
		if view := h.StateManager.Bookings(hc.TelegramID); view != nil {
			view.Collection.Upsert(res)
		}

		// Карточки без отслеживания и сообщения вне списка перерисовываем сами
		if !tracked && !isBookingsMessage(hc) {
			text, kb := common.BuildReservationScreen(res, lc.Countdown(), lc.CheckinDeadline())
			if err := hc.EditMessage(text, kb); err != nil {
				h.Logger.Warn("Failed to edit reservation card", zap.Error(err))
			}
		}
	})
}

type lifecycleAction func(*service.Lifecycle, context.Context) error

var reservationActions = []struct {
	prefix string
	act    lifecycleAction
}{
	{callbacktypes.ResConfirm, (*service.Lifecycle).Confirm},
	{callbacktypes.ResCancel, (*service.Lifecycle).Cancel},
	{callbacktypes.ResCheckIn, (*service.Lifecycle).CheckIn},
	{callbacktypes.ResCheckOut, (*service.Lifecycle).CheckOut},
}

func reservationAction(data string) (string, lifecycleAction) {
	for _, a := range reservationActions {
		if strings.HasPrefix(data, a.prefix) {
			return a.prefix, a.act
		}
	}
	return "", nil
}

// lifecycleFor возвращает отслеживаемый жизненный цикл или строит временный
// по последнему известному снимку. tracked=false для временного.
func lifecycleFor(hc *common.HandlerContext, id int64) (*service.Lifecycle, bool, error) {
	h := hc.Handler

	if t := h.StateManager.Lifecycle(id); t != nil {
		return t.Lifecycle, true, nil
	}

	res, err := findReservation(hc, id)
	if err != nil {
		return nil, false, err
	}
	return service.NewLifecycle(res, h.Transport, h.Clock, h.Engine.Lifecycle, h.Logger), false, nil
}

// findReservation ищет бронирование в открытом списке, затем на сервере
func findReservation(hc *common.HandlerContext, id int64) (*model.Reservation, error) {
	h := hc.Handler

	if view := h.StateManager.Bookings(hc.TelegramID); view != nil {
		if res, ok := view.Collection.Get(id); ok {
			return res, nil
		}
	}

	list, err := h.Transport.FetchReservations(hc.Ctx, scopeFor(hc.User))
	if err != nil {
		return nil, fmt.Errorf("fetch reservations: %w", err)
	}
	for _, res := range list {
		if res.ID == id {
			return res, nil
		}
	}
	return nil, service.ErrReservationNotFound
}

// reconcileOne подтягивает серверный снимок после отказа сервера.
// Пропавшее из активных бронирование считается завершённым.
func reconcileOne(hc *common.HandlerContext, lc *service.Lifecycle) {
	h := hc.Handler

	list, err := h.Transport.FetchReservations(hc.Ctx, scopeFor(hc.User))
	if err != nil {
		h.Logger.Warn("Failed to fetch reservations for reconcile", zap.Error(err))
		return
	}

	for _, res := range list {
		if res.ID == lc.ID() {
			if err := lc.Apply(res); err != nil {
				h.Logger.Warn("Failed to apply server snapshot", zap.Error(err))
			}
			return
		}
	}

	gone := lc.Reservation()
	if gone.State == model.ReservationCheckedIn {
		gone.State = model.ReservationCheckedOut
	} else {
		gone.State = model.ReservationCancelled
	}
	gone.UpdatedAt = h.Clock.Now()
	if err := lc.Apply(gone); err != nil {
		h.Logger.Warn("Failed to apply server snapshot", zap.Error(err))
	}
}

func scopeFor(user *model.User) model.ReservationScope {
	return model.ReservationScope{UserID: user.ID, All: user.IsStaff}
}

func isBookingsMessage(hc *common.HandlerContext) bool {
	view := hc.Handler.StateManager.Bookings(hc.TelegramID)
	return view != nil && hc.Message != nil && view.MessageID == hc.Message.ID
}

package callbacks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/app"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// bookingsViewTTL сколько живёт фоновый опрос открытого списка
const bookingsViewTTL = 30 * time.Minute

// ========================
// Bookings List Handlers
// ========================

// OpenBookings отправляет список живых бронирований и запускает его обновление.
// all=true показывает бронирования всех пользователей (стойка сотрудника).
func OpenBookings(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, chatID, telegramID int64, user *model.User, all bool) error {
	scope := model.ReservationScope{UserID: user.ID, All: all}

	viewCtx, cancel := context.WithTimeout(h.BackgroundCtx, bookingsViewTTL)
	view := state.NewBookingsView(scope, cancel)

	refresher := app.NewRefresher(h.Transport, scope, view.Collection, app.RefresherConfig{
		Interval: h.Engine.RefreshInterval,
	}, h.Logger)

	if err := refresher.Refresh(ctx); err != nil {
		cancel()
		return fmt.Errorf("load reservations: %w", err)
	}

	text, kb := renderBookings(h, view)
	msgID, err := common.SendScreen(ctx, b, chatID, text, kb)
	if err != nil {
		cancel()
		return fmt.Errorf("send bookings: %w", err)
	}
	view.MessageID = msgID

	// Опрос присылает полный список каждый раз; редактируем только при изменении текста
	var (
		mu       sync.Mutex
		lastText = text
	)
	view.OnClose(view.Collection.OnChange(func(list []*model.Reservation) {
		reconcileTracked(h, list)

		text, kb := renderBookings(h, view)
		mu.Lock()
		changed := text != lastText
		lastText = text
		mu.Unlock()
		if !changed {
			return
		}
		if err := common.EditScreen(h.BackgroundCtx, b, chatID, view.MessageID, text, kb); err != nil {
			h.Logger.Warn("Failed to update bookings list",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
		}
	}))

	h.StateManager.SetBookings(telegramID, view)
	go refresher.Run(viewCtx)

	h.Logger.Info("Bookings list opened",
		zap.Int64("user_id", user.ID),
		zap.Bool("all", all),
		zap.Int("count", view.Collection.Len()),
	)
	return nil
}

func renderBookings(h *callbacktypes.Handler, view *state.BookingsView) (string, *models.InlineKeyboardMarkup) {
	title := "My bookings"
	if view.Scope.All {
		title = "Front desk"
	}
	return common.BuildBookingsScreen(title, view.Collection.Upcoming(), view.Collection.Active(), view.Collection.Drafts(), h.Engine.Lifecycle.CheckinGrace)
}

// reconcileTracked применяет серверные снимки к отслеживаемым карточкам
func reconcileTracked(h *callbacktypes.Handler, list []*model.Reservation) {
	for _, res := range list {
		t := h.StateManager.Lifecycle(res.ID)
		if t == nil {
			continue
		}
		if t.Lifecycle.State() == res.State {
			continue
		}
		if err := t.Lifecycle.Apply(res); err != nil {
			h.Logger.Warn("Failed to reconcile reservation",
				zap.Int64("reservation_id", res.ID),
				zap.Error(err))
		}
	}
}

// HandleBookingsRefresh обновляет открытый список немедленно
func HandleBookingsRefresh(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		view := h.StateManager.Bookings(hc.TelegramID)
		if view == nil || hc.Message == nil || view.MessageID != hc.Message.ID {
			// Старый список: открываем заново в этом же чате
			if err := OpenBookings(ctx, b, h, hc.ChatID, hc.TelegramID, hc.User, view != nil && view.Scope.All); err != nil {
				common.HandleError(hc, err, "open_bookings")
				return
			}
			hc.Answer("")
			return
		}

		list, err := h.Transport.FetchReservations(ctx, view.Scope)
		if err != nil {
			common.HandleError(hc, err, "refresh_bookings")
			return
		}
		view.Collection.ReplaceAll(list)
		hc.Answer("🔄 Updated")
	})
}

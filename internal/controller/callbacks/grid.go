package callbacks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Slot Grid Handlers
// ========================

// GridRequest параметры открытия сетки
type GridRequest struct {
	ChatID     int64
	TelegramID int64
	Kind       model.ResourceKind
	Date       time.Time
	Guests     []model.UserRef // непусто для drop-in за гостей
}

// OpenGrid загружает доступность и отправляет новый экран выбора слотов
func OpenGrid(ctx context.Context, b *bot.Bot, h *callbacktypes.Handler, req GridRequest) error {
	view, err := loadView(ctx, h, req.TelegramID, req.Kind, req.Date, req.Guests)
	if err != nil {
		return err
	}

	view.Lock()
	text, kb := renderGrid(h, view)
	view.Unlock()

	msgID, err := common.SendScreen(ctx, b, req.ChatID, text, kb)
	if err != nil {
		return fmt.Errorf("send grid: %w", err)
	}
	view.MessageID = msgID
	h.StateManager.SetView(req.TelegramID, view)

	h.Logger.Info("Grid opened",
		zap.Int64("telegram_id", req.TelegramID),
		zap.String("kind", string(req.Kind)),
		zap.Time("date", req.Date),
		zap.Bool("drop_in", view.DropIn),
	)
	return nil
}

// Today начало текущего дня в зоне кампуса
func Today(h *callbacktypes.Handler) time.Time {
	return formatting.StartOfDay(h.Clock.Now().In(h.Engine.Location))
}

func loadView(ctx context.Context, h *callbacktypes.Handler, telegramID int64, kind model.ResourceKind, date time.Time, guests []model.UserRef) (*state.BookingView, error) {
	scope := model.AvailabilityScope{Kind: kind}
	if len(guests) == 0 {
		requester, err := h.UserService.Requester(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		scope.RequesterID = requester.ID
	}

	grid, err := h.Transport.FetchAvailability(ctx, scope, date)
	if err != nil {
		return nil, fmt.Errorf("fetch availability: %w", err)
	}

	view := state.NewBookingView(kind, date, grid, h.Engine.MaxRunLength)
	view.DropIn = len(guests) > 0
	view.Guests = guests
	return view, nil
}

// renderGrid вызывается под блокировкой view
func renderGrid(h *callbacktypes.Handler, view *state.BookingView) (string, *models.InlineKeyboardMarkup) {
	return common.BuildGridScreen(view, view.Page, Today(h), view.Selection.MaxRun(), h.Engine.DropInDuration)
}

// currentView возвращает экран, к которому относится нажатая кнопка
func currentView(hc *common.HandlerContext) (*state.BookingView, error) {
	if hc.Message == nil {
		return nil, common.ErrNoMessage
	}
	view := hc.Handler.StateManager.View(hc.TelegramID)
	if view == nil || view.MessageID != hc.Message.ID {
		return nil, common.ErrNoView
	}
	return view, nil
}

// HandleCell переключает выбор ячейки
func HandleCell(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	resourceID, index, err := callbacktypes.ParseCell(callback.Data)
	if err != nil {
		common.HandleError(hc, common.ErrInvalidFormat, "parse_cell")
		return
	}

	view, err := currentView(hc)
	if err != nil {
		common.HandleError(hc, err, "cell")
		return
	}

	view.Lock()
	if !view.Grid.Has(resourceID) || index >= view.Grid.Len() {
		view.Unlock()
		common.HandleError(hc, common.ErrInvalidFormat, "cell")
		return
	}
	if !view.Grid.State(resourceID, index).Selectable() {
		view.Unlock()
		hc.Answer("This slot is taken")
		return
	}
	view.Selection.Toggle(resourceID, index)
	text, kb := renderGrid(h, view)
	view.Unlock()

	hc.Answer("")
	if err := hc.EditMessage(text, kb); err != nil {
		h.Logger.Warn("Failed to edit grid", zap.Error(err))
	}
}

// HandlePage листает строки сетки
func HandlePage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	page, err := callbacktypes.ParsePage(callback.Data)
	if err != nil {
		common.HandleError(hc, common.ErrInvalidFormat, "parse_page")
		return
	}

	view, err := currentView(hc)
	if err != nil {
		common.HandleError(hc, err, "grid_page")
		return
	}

	view.Lock()
	view.Page = min(page, common.GridPages(view.Grid)-1)
	text, kb := renderGrid(h, view)
	view.Unlock()

	hc.Answer("")
	if err := hc.EditMessage(text, kb); err != nil {
		h.Logger.Warn("Failed to edit grid", zap.Error(err))
	}
}

// HandleDay открывает сетку другого дня в том же сообщении
func HandleDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	day, err := callbacktypes.ParseDay(callback.Data, h.Engine.Location)
	if err != nil {
		common.HandleError(hc, common.ErrInvalidFormat, "parse_day")
		return
	}
	if day.Before(Today(h)) {
		hc.Answer("That day has passed")
		return
	}

	view, err := currentView(hc)
	if err != nil {
		common.HandleError(hc, err, "grid_day")
		return
	}

	if err := reloadView(hc, view, day); err != nil {
		common.HandleError(hc, err, "grid_day")
		return
	}
	hc.Answer("")
}

// HandleRefresh перечитывает доступность; выбор сбрасывается
func HandleRefresh(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	view, err := currentView(hc)
	if err != nil {
		common.HandleError(hc, err, "grid_refresh")
		return
	}

	if err := reloadView(hc, view, view.Date); err != nil {
		common.HandleError(hc, err, "grid_refresh")
		return
	}
	hc.Answer("🔄 Updated")
}

// HandleClear сбрасывает выбор
func HandleClear(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := common.NewHandlerContext(ctx, b, callback, h)

	view, err := currentView(hc)
	if err != nil {
		common.HandleError(hc, err, "grid_clear")
		return
	}

	view.Lock()
	view.Selection.Clear()
	text, kb := renderGrid(h, view)
	view.Unlock()

	hc.Answer("")
	if err := hc.EditMessage(text, kb); err != nil {
		h.Logger.Warn("Failed to edit grid", zap.Error(err))
	}
}

// reloadView заменяет экран свежей сеткой в том же сообщении.
// На callback не отвечает.
func reloadView(hc *common.HandlerContext, prev *state.BookingView, day time.Time) error {
	h := hc.Handler

	view, err := loadView(hc.Ctx, h, hc.TelegramID, prev.Kind, day, prev.Guests)
	if err != nil {
		return err
	}
	view.MessageID = prev.MessageID

	view.Lock()
	text, kb := renderGrid(h, view)
	view.Unlock()

	h.StateManager.SetView(hc.TelegramID, view)
	if err := hc.EditMessage(text, kb); err != nil {
		h.Logger.Warn("Failed to edit grid", zap.Error(err))
	}
	return nil
}

// revertSelection снимает подсветку выбора после неудачной отправки
func revertSelection(hc *common.HandlerContext, view *state.BookingView) {
	text, kb := clearSelection(hc.Handler, view)
	if err := hc.EditMessage(text, kb); err != nil {
		hc.Handler.Logger.Warn("Failed to edit grid", zap.Error(err))
	}
}

// clearSelection возвращает ячейки выбора в Available и перерисовывает экран
func clearSelection(h *callbacktypes.Handler, view *state.BookingView) (string, *models.InlineKeyboardMarkup) {
	view.Lock()
	defer view.Unlock()
	view.Selection.Clear()
	return renderGrid(h, view)
}

// HandleSubmit отправляет выбор как заявку и показывает карточку черновика
func HandleSubmit(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		view, err := currentView(hc)
		if err != nil {
			common.HandleError(hc, err, "grid_submit")
			return
		}

		view.Lock()
		sel := view.Selection.Selection()
		var req model.ReservationRequest
		if view.DropIn {
			req, err = h.Drafts.BuildDropIn(view.Grid, sel, view.Guests)
		} else {
			req, err = h.Drafts.Build(view.Grid, sel, []model.UserRef{hc.User.Ref()})
		}
		if err == nil {
			req.Key = view.RequestKey()
		}
		view.Unlock()
		if err != nil {
			revertSelection(hc, view)
			common.HandleError(hc, err, "build_draft")
			return
		}

		res, err := h.Transport.SubmitReservationRequest(ctx, req)
		if errors.Is(err, service.ErrSlotConflict) {
			h.Logger.Info("Reservation request conflicted",
				zap.String("resource_id", req.ResourceID),
				zap.Time("start", req.Start),
			)
			if reloadErr := reloadView(hc, view, view.Date); reloadErr != nil {
				h.Logger.Warn("Failed to reload grid after conflict", zap.Error(reloadErr))
			}
			hc.AnswerAlert(common.ErrorMessage(err))
			return
		}
		if err != nil {
			revertSelection(hc, view)
			common.HandleError(hc, err, "submit_reservation")
			return
		}

		if h.StateManager.Lifecycle(res.ID) != nil {
			// Повторное нажатие: сервер вернул уже созданный черновик
			hc.Answer("📝 Draft already created")
			return
		}

		h.Logger.Info("Draft reservation created",
			zap.Int64("reservation_id", res.ID),
			zap.Int64("user_id", hc.User.ID),
			zap.String("resource_id", res.Resource.ID),
		)

		if _, err := startDraft(ctx, b, h, hc.ChatID, res); err != nil {
			common.HandleError(hc, err, "send_draft")
			return
		}
		if err := reloadView(hc, view, view.Date); err != nil {
			h.Logger.Warn("Failed to reload grid after submit", zap.Error(err))
		}
		hc.Answer("📝 Draft created")
	})
}

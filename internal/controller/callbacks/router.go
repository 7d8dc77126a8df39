package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Main Callback Router
// ========================

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	h.Logger.Debug("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
		zap.String("user_name", callback.From.FirstName))

	switch {
	case data == callbacktypes.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Slot Grid =====
	case strings.HasPrefix(data, callbacktypes.Cell):
		HandleCell(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.GridPage):
		HandlePage(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.GridDay):
		HandleDay(ctx, b, callback, h)
	case data == callbacktypes.GridRefresh:
		HandleRefresh(ctx, b, callback, h)
	case data == callbacktypes.GridClear:
		HandleClear(ctx, b, callback, h)
	case data == callbacktypes.GridSubmit:
		HandleSubmit(ctx, b, callback, h)

	// ===== Reservations =====
	case strings.HasPrefix(data, callbacktypes.ResConfirm),
		strings.HasPrefix(data, callbacktypes.ResCancel),
		strings.HasPrefix(data, callbacktypes.ResCheckIn),
		strings.HasPrefix(data, callbacktypes.ResCheckOut):
		HandleReservationAction(ctx, b, callback, h)
	case data == callbacktypes.BookingsRefresh:
		HandleBookingsRefresh(ctx, b, callback, h)

	// ===== Unknown Callback =====
	default:
		h.Logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "")
	}
}

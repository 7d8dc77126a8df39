package handlers

import (
	"context"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleDropIn начинает бронирование XL слота за гостей (только сотрудники)
func (h *Handlers) HandleDropIn(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}

	var arg string
	if args := commandArgs(update.Message.Text); len(args) > 0 {
		arg = args[0]
	}

	day, err := parseDay(arg, callbacks.Today(h.deps))
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, dayErrorText(err))
		return
	}

	telegramID := update.Message.From.ID

	h.logger.Info("Starting drop-in",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("staff_id", user.ID),
		zap.Time("day", day))

	h.stateManager.SetState(telegramID, state.StateDropInGuestNames)
	h.stateManager.SetData(telegramID, dataDropInDate, day)

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"🚶 <b>Drop-in for "+formatting.FormatDate(day)+"</b>\n\n"+
			"Send the guest names separated by commas.\n"+
			"For example: Ada Lovelace, Alan Turing\n\n"+
			"To stop, use /cancel")
}

// handleGuestNamesStep обрабатывает ввод имён гостей и открывает XL сетку
func (h *Handlers) handleGuestNamesStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	names, err := parseGuestNames(update.Message.Text)
	if err != nil {
		h.logger.Debug("Invalid guest names", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ "+err.Error()+"\n\nTry again:")
		return
	}

	day := callbacks.Today(h.deps)
	if value, ok := h.stateManager.GetData(telegramID, dataDropInDate); ok {
		if d, ok := value.(time.Time); ok {
			day = d
		}
	}

	guests := make([]model.UserRef, 0, len(names))
	for _, name := range names {
		guest, err := h.userService.RegisterGuest(ctx, name)
		if err != nil {
			h.logger.Error("Failed to register guest", zap.String("name", name), zap.Error(err))
			h.sendError(ctx, b, chatID, common.ErrorMessage(err))
			return
		}
		guests = append(guests, guest.Ref())
	}

	h.stateManager.ClearState(telegramID)

	err = callbacks.OpenGrid(ctx, b, h.deps, callbacks.GridRequest{
		ChatID:     chatID,
		TelegramID: telegramID,
		Kind:       model.ResourceXL,
		Date:       day,
		Guests:     guests,
	})
	if err != nil {
		h.logger.Error("Failed to open drop-in grid", zap.Error(err))
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
	}
}

package handlers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleBook обрабатывает команду /book - сетка учебных комнат
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.openGrid(ctx, b, update, model.ResourceRoom)
}

// HandleSeats обрабатывает команду /seats - сетка мест
func (h *Handlers) HandleSeats(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.openGrid(ctx, b, update, model.ResourceSeat)
}

func (h *Handlers) openGrid(ctx context.Context, b *bot.Bot, update *models.Update, kind model.ResourceKind) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
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

	err = callbacks.OpenGrid(ctx, b, h.deps, callbacks.GridRequest{
		ChatID:     update.Message.Chat.ID,
		TelegramID: update.Message.From.ID,
		Kind:       kind,
		Date:       day,
	})
	if err != nil {
		h.logger.Error("Failed to open grid",
			zap.Int64("telegram_id", update.Message.From.ID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
	}
}

// HandleMyBookings обрабатывает команду /mybookings
func (h *Handlers) HandleMyBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if err := callbacks.OpenBookings(ctx, b, h.deps, update.Message.Chat.ID, update.Message.From.ID, user, false); err != nil {
		h.logger.Error("Failed to open bookings", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
	}
}

// HandleDesk обрабатывает команду /desk - все живые бронирования для стойки
func (h *Handlers) HandleDesk(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireStaff(ctx, b, update)
	if !ok {
		return
	}

	if err := callbacks.OpenBookings(ctx, b, h.deps, update.Message.Chat.ID, update.Message.From.ID, user, true); err != nil {
		h.logger.Error("Failed to open desk", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
	}
}

// HandleGrid обрабатывает команду /grid - доступность картинкой
func (h *Handlers) HandleGrid(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	args := commandArgs(update.Message.Text)
	var kindArg, dayArg string
	if len(args) > 0 {
		kindArg = args[0]
	}
	if len(args) > 1 {
		dayArg = args[1]
	}

	kind, ok := parseKind(kindArg)
	if !ok {
		// Первый аргумент может быть днём: /grid tomorrow
		kind, dayArg = model.ResourceRoom, kindArg
	}

	day, err := parseDay(dayArg, callbacks.Today(h.deps))
	if err != nil {
		h.sendError(ctx, b, update.Message.Chat.ID, dayErrorText(err))
		return
	}

	grid, err := h.deps.Transport.FetchAvailability(ctx, model.AvailabilityScope{Kind: kind, RequesterID: user.ID}, day)
	if err != nil {
		h.logger.Error("Failed to fetch availability", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	title := fmt.Sprintf("%s  %s", formatting.GetResourceKindTitle(kind), formatting.FormatDate(day))
	imageData, err := common.GenerateGridImage(grid, title, h.deps.Clock.Now().In(h.deps.Engine.Location))
	if err != nil {
		h.logger.Error("Failed to render grid image", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  update.Message.Chat.ID,
		Photo:   &models.InputFileUpload{Filename: "grid.png", Data: bytes.NewReader(imageData)},
		Caption: fmt.Sprintf("%s · %s\nUse /book to reserve.", formatting.GetResourceKindTitle(kind), formatting.FormatDate(day)),
	})
	if err != nil {
		h.logger.Error("Failed to send grid image", zap.Error(err))
	}
}

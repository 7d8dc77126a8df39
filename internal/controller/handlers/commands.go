package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := update.Message.From

	// Регистрируем пользователя
	registeredUser, err := h.userService.RegisterUser(
		ctx,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
	)

	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Registration failed. Try again later.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"This bot books study rooms and seats on campus.\n\n"+
			"/book - Reserve a study room\n"+
			"/seats - Reserve a seat\n"+
			"/mybookings - Your reservations\n"+
			"/grid - Availability as a picture\n"+
			"/help - Help",
		html.EscapeString(registeredUser.DisplayName()),
	)
	if registeredUser.IsStaff {
		welcomeText += "\n\nFront desk:\n/dropin - Book an XL slot for walk-in guests\n/desk - All live reservations"
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 <b>Commands</b>\n\n" +
		"/book [today|tomorrow|YYYY-MM-DD] - Reserve a study room\n" +
		"/seats [day] - Reserve a seat\n" +
		"/mybookings - Confirm, check in or cancel your reservations\n" +
		"/grid [rooms|seats|xl] [day] - Availability as a picture\n" +
		"/cancel - Stop the current dialog\n\n" +
		"<b>How booking works</b>\n" +
		"Tap free slots in one column to pick up to a few in a row, then press Reserve. " +
		"The reservation is a draft until you confirm it, and an unconfirmed draft is released automatically. " +
		"Check in when your time starts, or the room may be given away.\n\n" +
		"<b>Front desk</b>\n" +
		"/dropin [day] - Book an XL slot for walk-in guests\n" +
		"/desk - All live reservations"

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	if currentState == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Nothing to cancel.")
		return
	}

	// Очищаем состояние
	h.stateManager.ClearState(telegramID)

	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Cancelled.\n\nSee /help for the list of commands.")
}

// HandleDefault получает все апдейты без зарегистрированного обработчика.
// Текстовые сообщения идут в текущий диалог пользователя.
func (h *Handlers) HandleDefault(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Неизвестные команды
	if strings.HasPrefix(update.Message.Text, "/") {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🤔 Unknown command. See /help")
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	h.logger.Debug("Handling text message",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)))

	switch currentState {
	case state.StateDropInGuestNames:
		h.handleGuestNamesStep(ctx, b, update)
	default:
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Use /book to reserve a room or /help for all commands.")
	}
}

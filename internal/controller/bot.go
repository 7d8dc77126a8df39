package controller

import (
	"context"

	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/handlers"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot      *bot.Bot
	deps     *callbacktypes.Handler
	handlers *handlers.Handlers
	logger   *zap.Logger
}

// NewBotController собирает обработчики бота.
// deps.StateManager создаётся здесь, если не передан.
func NewBotController(deps *callbacktypes.Handler) *BotController {
	if deps.StateManager == nil {
		deps.StateManager = state.NewManager()
	}
	if deps.BackgroundCtx == nil {
		deps.BackgroundCtx = context.Background()
	}

	return &BotController{
		deps:     deps,
		handlers: handlers.NewHandlers(deps),
		logger:   deps.Logger,
	}
}

// DefaultHandler обработчик апдейтов, для которых нет зарегистрированного handler.
// Передаётся в bot.WithDefaultHandler до создания бота.
func (c *BotController) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handlers.HandleDefault(ctx, b, update)
}

// HandleCallbackQuery обрабатывает нажатия на inline кнопки
func (c *BotController) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	callbacks.Route(ctx, b, update.CallbackQuery, c.deps)
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context, b *bot.Bot) error {
	c.bot = b

	// Команды без аргументов
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.handlers.HandleMyBookings)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// Команды с необязательным днём
	b.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypePrefix, c.handlers.HandleBook)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/seats", bot.MatchTypePrefix, c.handlers.HandleSeats)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/grid", bot.MatchTypePrefix, c.handlers.HandleGrid)

	// Команды для сотрудников
	b.RegisterHandler(bot.HandlerTypeMessageText, "/dropin", bot.MatchTypePrefix, c.handlers.HandleDropIn)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/desk", bot.MatchTypeExact, c.handlers.HandleDesk)

	// Обработчик нажатий на inline кнопки
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.HandleCallbackQuery)

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Start"},
		{Command: "book", Description: "🏠 Reserve a study room"},
		{Command: "seats", Description: "🪑 Reserve a seat"},
		{Command: "mybookings", Description: "📅 My reservations"},
		{Command: "grid", Description: "🖼 Availability picture"},
		{Command: "dropin", Description: "🚶 Drop-in for guests (staff)"},
		{Command: "desk", Description: "🗂 All reservations (staff)"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

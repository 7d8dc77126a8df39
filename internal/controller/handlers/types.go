package handlers

import (
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	deps         *callbacktypes.Handler
	userService  *service.UserService
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд поверх общих зависимостей бота
func NewHandlers(deps *callbacktypes.Handler) *Handlers {
	return &Handlers{
		deps:         deps,
		userService:  deps.UserService,
		stateManager: deps.StateManager,
		logger:       deps.Logger,
	}
}

package callbacktypes

import (
	"context"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"go.uber.org/zap"
)

// Engine параметры бронирования, нужные экранам бота
type Engine struct {
	MaxRunLength    int
	DropInDuration  time.Duration
	Lifecycle       service.LifecycleConfig
	RefreshInterval time.Duration
	Location        *time.Location
}

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService  *service.UserService
	Transport    service.Transport
	Drafts       *service.DraftBuilder
	StateManager *state.Manager
	Clock        clock.Clock
	Engine       Engine
	Logger       *zap.Logger

	// BackgroundCtx живёт столько же, сколько бот: на нём работают таймеры черновиков
	BackgroundCtx context.Context
}

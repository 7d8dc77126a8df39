package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/controller/callbacks/common"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Лимиты по умолчанию: кнопки сетки нажимают часто, поэтому запас на серию нажатий
const (
	DefaultRateLimit = rate.Limit(3)
	DefaultRateBurst = 10
	rateLimiterIdle  = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту апдейтов от одного пользователя
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[int64]*visitor
	limit    rate.Limit
	burst    int
	clock    clock.Clock
	logger   *zap.Logger
}

// NewRateLimiter создаёт лимитер; limit - событий в секунду
func NewRateLimiter(limit rate.Limit, burst int, clk clock.Clock, logger *zap.Logger) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if burst <= 0 {
		burst = DefaultRateBurst
	}
	return &RateLimiter{
		visitors: make(map[int64]*visitor),
		limit:    limit,
		burst:    burst,
		clock:    clk,
		logger:   logger,
	}
}

// Allow расходует одно событие пользователя
func (rl *RateLimiter) Allow(userID int64) bool {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[userID]
	if !exists {
		rl.pruneLocked(now)
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[userID] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Visitors количество отслеживаемых пользователей
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// pruneLocked удаляет пользователей, давно не присылавших апдейты
func (rl *RateLimiter) pruneLocked(now time.Time) {
	for id, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rateLimiterIdle {
			delete(rl.visitors, id)
		}
	}
}

// Middleware пропускает апдейт дальше, только если пользователь не превысил лимит
func (rl *RateLimiter) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		userID, ok := updateUserID(update)
		if !ok || rl.Allow(userID) {
			next(ctx, b, update)
			return
		}

		rl.logger.Debug("Update rate limited", zap.Int64("telegram_id", userID))
		if update.CallbackQuery != nil {
			common.AnswerCallback(ctx, b, update.CallbackQuery.ID, common.ErrorMessage(common.ErrRateLimited))
		}
	}
}

func updateUserID(update *models.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, true
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	default:
		return 0, false
	}
}

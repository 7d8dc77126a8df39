package handlers

import (
	"testing"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(rate.Every(time.Second), 2, clk, zap.NewNop())

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	// Другой пользователь не затронут
	assert.True(t, rl.Allow(2))

	clk.Advance(time.Second)
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
}

func TestRateLimiter_PrunesIdleVisitors(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(0, 0, clk, zap.NewNop())

	rl.Allow(1)
	rl.Allow(2)
	assert.Equal(t, 2, rl.Visitors())

	clk.Advance(rateLimiterIdle + time.Second)
	rl.Allow(3)
	assert.Equal(t, 1, rl.Visitors())
}

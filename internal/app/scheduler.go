package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DraftCanceller отменяет черновики, которые не подтвердили за окно подтверждения
type DraftCanceller interface {
	CancelStaleDrafts(ctx context.Context, window time.Duration) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	drafts        DraftCanceller
	confirmWindow time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(drafts DraftCanceller, confirmWindow, sweepInterval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		drafts:        drafts,
		confirmWindow: confirmWindow,
		sweepInterval: sweepInterval,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("sweep_interval", s.sweepInterval))

	s.wg.Add(1)
	go s.runDraftSweepTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

// runDraftSweepTask периодически отменяет брошенные черновики.
// Клиент мог пропасть до своего таймера, поэтому сервер убирает их сам.
func (s *Scheduler) runDraftSweepTask(ctx context.Context) {
	defer s.wg.Done()

	s.sweepDrafts(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepDrafts(ctx)
		case <-s.stopChan:
			s.logger.Info("Draft sweep task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Draft sweep task cancelled")
			return
		}
	}
}

func (s *Scheduler) sweepDrafts(ctx context.Context) {
	cancelled, err := s.drafts.CancelStaleDrafts(ctx, s.confirmWindow)
	if err != nil {
		s.logger.Error("Failed to sweep stale drafts", zap.Error(err))
		return
	}

	if cancelled > 0 {
		s.logger.Debug("Draft sweep completed", zap.Int64("cancelled", cancelled))
	}
}

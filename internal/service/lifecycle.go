package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/observe"
	"go.uber.org/zap"
)

const (
	DefaultConfirmWindow = 5 * time.Minute
	DefaultCheckinGrace  = 10 * time.Minute
	DefaultCountdownTick = time.Second
)

// LifecycleConfig временные параметры машины состояний
type LifecycleConfig struct {
	ConfirmWindow time.Duration // сколько живёт неподтверждённый черновик
	CheckinGrace  time.Duration // окно check-in после начала
	TickInterval  time.Duration // период проверки дедлайна
}

func (c LifecycleConfig) withDefaults() LifecycleConfig {
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = DefaultConfirmWindow
	}
	if c.CheckinGrace <= 0 {
		c.CheckinGrace = DefaultCheckinGrace
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultCountdownTick
	}
	return c
}

// Lifecycle ведёт одно бронирование от черновика до завершения.
//
// Все операции сериализуются opMu, поэтому вызовы транспорта не пересекаются.
// Тик таймера берёт opMu через TryLock и пропускается, пока идёт пользовательская операция.
// Автоотмена защищена одноразовым флагом cancelIssued, а не только сравнением времени.
// acked хранит UpdatedAt последнего состояния, подтверждённого сервером;
// снимки старше него пришли до нашего перехода и отбрасываются.
type Lifecycle struct {
	transport Transport
	clock     clock.Clock
	cfg       LifecycleConfig
	logger    *zap.Logger

	opMu sync.Mutex

	mu            sync.RWMutex
	res           *model.Reservation
	deadline      time.Time
	acked         time.Time
	cancelIssued  bool
	timerCtx      context.Context
	stopTimer     context.CancelFunc
	lastCountdown string

	changes   observe.Observers[*model.Reservation]
	countdown observe.Observers[string]
}

// NewLifecycle начинает отслеживать бронирование, полученное от транспорта
func NewLifecycle(res *model.Reservation, transport Transport, clk clock.Clock, cfg LifecycleConfig, logger *zap.Logger) *Lifecycle {
	cfg = cfg.withDefaults()
	snapshot := res.Clone()
	return &Lifecycle{
		transport: transport,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(zap.Int64("reservation_id", snapshot.ID)),
		res:       snapshot,
		deadline:  snapshot.CreatedAt.Add(cfg.ConfirmWindow),
		acked:     snapshot.UpdatedAt,
	}
}

// Start запускает таймер подтверждения, если бронирование - черновик.
// Таймер останавливается при выходе из черновика или отмене ctx.
func (l *Lifecycle) Start(ctx context.Context) {
	l.mu.Lock()
	l.timerCtx = ctx
	started := l.startTimerLocked()
	l.mu.Unlock()

	if started {
		l.logger.Debug("Confirmation timer started", zap.Time("deadline", l.Deadline()))
	}
}

// Stop останавливает таймер, например при закрытии экрана
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTimerLocked()
}

// Reservation возвращает копию текущего снимка
func (l *Lifecycle) Reservation() *model.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.res.Clone()
}

func (l *Lifecycle) ID() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.res.ID
}

func (l *Lifecycle) State() model.ReservationState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.res.State
}

// Deadline момент автоматической отмены черновика
func (l *Lifecycle) Deadline() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.deadline
}

// CheckinDeadline min(start + grace, end); только для отображения
func (l *Lifecycle) CheckinDeadline() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return CheckinDeadline(l.res.TimeRange, l.cfg.CheckinGrace)
}

// TimerRunning сообщает, активен ли таймер подтверждения
func (l *Lifecycle) TimerRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stopTimer != nil
}

// Countdown строка обратного отсчёта до автоматической отмены
func (l *Lifecycle) Countdown() string {
	return FormatCountdown(l.Deadline().Sub(l.clock.Now()))
}

// OnChange подписывает на смену снимка бронирования
func (l *Lifecycle) OnChange(fn func(*model.Reservation)) func() {
	return l.changes.Subscribe(fn)
}

// OnCountdown подписывает на изменения строки обратного отсчёта
func (l *Lifecycle) OnCountdown(fn func(string)) func() {
	return l.countdown.Subscribe(fn)
}

// Confirm переводит черновик в подтверждённое бронирование
func (l *Lifecycle) Confirm(ctx context.Context) error {
	return l.transition(ctx, "confirm", []model.ReservationState{model.ReservationDraft}, nil,
		func(ctx context.Context, id int64) (*model.Reservation, error) {
			return l.transport.Confirm(ctx, id)
		}, model.ReservationConfirmed)
}

// Cancel отменяет черновик или подтверждённое бронирование по запросу пользователя
func (l *Lifecycle) Cancel(ctx context.Context) error {
	return l.transition(ctx, "cancel", []model.ReservationState{model.ReservationDraft, model.ReservationConfirmed}, nil,
		func(ctx context.Context, id int64) (*model.Reservation, error) {
			return nil, l.transport.Cancel(ctx, id)
		}, model.ReservationCancelled)
}

// CheckIn отмечает приход; раньше начала бронирования запрещено
func (l *Lifecycle) CheckIn(ctx context.Context) error {
	beforeStart := func(now time.Time, res *model.Reservation) string {
		if now.Before(res.TimeRange.Start) {
			return fmt.Sprintf("reservation starts at %s", res.TimeRange.Start.Format(time.RFC3339))
		}
		return ""
	}
	return l.transition(ctx, "check_in", []model.ReservationState{model.ReservationConfirmed}, beforeStart,
		func(ctx context.Context, id int64) (*model.Reservation, error) {
			return l.transport.CheckIn(ctx, id)
		}, model.ReservationCheckedIn)
}

// CheckOut завершает бронирование после check-in
func (l *Lifecycle) CheckOut(ctx context.Context) error {
	return l.transition(ctx, "check_out", []model.ReservationState{model.ReservationCheckedIn}, nil,
		func(ctx context.Context, id int64) (*model.Reservation, error) {
			return l.transport.CheckOut(ctx, id)
		}, model.ReservationCheckedOut)
}

// transition общий путь пользовательских переходов: проверка, вызов транспорта, применение.
// Локальное состояние меняется только после успешного ответа транспорта.
func (l *Lifecycle) transition(
	ctx context.Context,
	name string,
	from []model.ReservationState,
	guard func(now time.Time, res *model.Reservation) string,
	call func(ctx context.Context, id int64) (*model.Reservation, error),
	to model.ReservationState,
) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	l.mu.RLock()
	current := l.res.Clone()
	l.mu.RUnlock()

	if current.State.Terminal() {
		l.logger.Debug("Transition on terminal reservation ignored",
			zap.String("transition", name),
			zap.String("state", string(current.State)),
		)
		return &AlreadyTerminalError{Transition: name, State: current.State}
	}

	if !stateIn(current.State, from) {
		return &InvalidTransitionError{Transition: name, From: current.State}
	}
	if guard != nil {
		if reason := guard(l.clock.Now(), current); reason != "" {
			return &InvalidTransitionError{Transition: name, From: current.State, Reason: reason}
		}
	}

	updated, err := call(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("%s reservation %d: %w", name, current.ID, err)
	}

	l.mu.Lock()
	if updated != nil && updated.ID == current.ID {
		l.res = updated.Clone()
	} else {
		l.res.State = to
		l.res.UpdatedAt = l.clock.Now()
	}
	l.acked = l.res.UpdatedAt
	if to == model.ReservationCancelled {
		l.cancelIssued = true
	}
	if l.res.State != model.ReservationDraft {
		l.stopTimerLocked()
	}
	snapshot := l.res.Clone()
	l.mu.Unlock()

	l.logger.Info("Reservation transition applied",
		zap.String("transition", name),
		zap.String("from", string(current.State)),
		zap.String("to", string(snapshot.State)),
	)
	l.changes.Notify(snapshot)
	return nil
}

// Tick проверяет дедлайн подтверждения. Возвращает true, если этот тик отменил черновик.
// Повторные тики после отмены ничего не делают.
func (l *Lifecycle) Tick(ctx context.Context) bool {
	if !l.opMu.TryLock() {
		return false
	}
	defer l.opMu.Unlock()

	now := l.clock.Now()

	l.mu.Lock()
	if l.res.State != model.ReservationDraft || l.cancelIssued {
		l.mu.Unlock()
		return false
	}

	if now.Before(l.deadline) {
		text := FormatCountdown(l.deadline.Sub(now))
		changed := text != l.lastCountdown
		l.lastCountdown = text
		l.mu.Unlock()
		if changed {
			l.countdown.Notify(text)
		}
		return false
	}

	l.cancelIssued = true
	l.res.State = model.ReservationCancelled
	l.res.UpdatedAt = now
	l.stopTimerLocked()
	snapshot := l.res.Clone()
	l.mu.Unlock()

	l.logger.Info("Draft not confirmed in time, cancelling")

	// Отмена таймера не должна обрывать сетевой вызов.
	// ExpireDraft отменяет только черновик, подтверждённое на сервере бронирование не трогается.
	if err := l.transport.ExpireDraft(context.WithoutCancel(ctx), snapshot.ID); err != nil {
		l.logger.Warn("Automatic cancel failed, waiting for refresh to reconcile", zap.Error(err))
	} else {
		l.mu.Lock()
		l.acked = now
		l.mu.Unlock()
	}

	l.countdown.Notify(FormatCountdown(0))
	l.changes.Notify(snapshot)
	return true
}

// Apply заменяет локальный снимок подтверждённым сервером целиком.
// Сервер всегда прав: локальное спекулятивное состояние отбрасывается.
// Снимок старше последнего подтверждённого сервером перехода игнорируется.
func (l *Lifecycle) Apply(snapshot *model.Reservation) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()

	l.mu.Lock()
	if snapshot.ID != l.res.ID {
		l.mu.Unlock()
		return fmt.Errorf("apply snapshot %d to reservation %d: %w", snapshot.ID, l.res.ID, ErrReservationNotFound)
	}
	if snapshot.UpdatedAt.Before(l.acked) {
		acked := l.acked
		l.mu.Unlock()
		l.logger.Debug("Outdated server snapshot ignored",
			zap.String("state", string(snapshot.State)),
			zap.Time("snapshot_updated_at", snapshot.UpdatedAt),
			zap.Time("acked_at", acked),
		)
		return nil
	}

	prev := l.res.State
	l.res = snapshot.Clone()
	l.acked = snapshot.UpdatedAt
	l.deadline = l.res.CreatedAt.Add(l.cfg.ConfirmWindow)
	if l.res.State == model.ReservationDraft {
		// Сервер не принял нашу автоотмену: разрешаем таймеру попробовать снова
		l.cancelIssued = false
		l.startTimerLocked()
	} else {
		l.stopTimerLocked()
	}
	current := l.res.Clone()
	l.mu.Unlock()

	if prev != current.State {
		l.logger.Info("Reservation replaced by server snapshot",
			zap.String("from", string(prev)),
			zap.String("to", string(current.State)),
		)
	}
	l.changes.Notify(current)
	return nil
}

func (l *Lifecycle) startTimerLocked() bool {
	if l.res.State != model.ReservationDraft || l.stopTimer != nil || l.timerCtx == nil {
		return false
	}
	ctx, cancel := context.WithCancel(l.timerCtx)
	l.stopTimer = cancel
	go l.run(ctx)
	return true
}

func (l *Lifecycle) stopTimerLocked() {
	if l.stopTimer != nil {
		l.stopTimer()
		l.stopTimer = nil
	}
}

func (l *Lifecycle) run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if l.Tick(ctx) {
				return
			}
		}
	}
}

// CheckinDeadline крайний срок check-in: min(start + grace, end)
func CheckinDeadline(tr model.TimeRange, grace time.Duration) time.Time {
	deadline := tr.Start.Add(grace)
	if tr.End.Before(deadline) {
		return tr.End
	}
	return deadline
}

// FormatCountdown "N minutes", пока осталось больше минуты, иначе "N seconds"
func FormatCountdown(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	if remaining > time.Minute {
		return fmt.Sprintf("%d minutes", ceilDiv(remaining, time.Minute))
	}
	return fmt.Sprintf("%d seconds", ceilDiv(remaining, time.Second))
}

func ceilDiv(d, unit time.Duration) int64 {
	return int64((d + unit - 1) / unit)
}

func stateIn(s model.ReservationState, states []model.ReservationState) bool {
	for _, st := range states {
		if s == st {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/clock"
	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var createdAt = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newReservation(state model.ReservationState) *model.Reservation {
	return &model.Reservation{
		ID:         42,
		Resource:   model.ResourceRef{ID: "R1", Name: "SN 156", Kind: model.ResourceRoom},
		TimeRange:  model.TimeRange{Start: at(11, 0), End: at(12, 0)},
		Requesters: []model.UserRef{{ID: 1, Name: "Ada"}},
		State:      state,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func newTestLifecycle(t *testing.T, state model.ReservationState) (*Lifecycle, *fakeTransport, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(createdAt)
	transport := newFakeTransport(clk.Now)
	l := NewLifecycle(newReservation(state), transport, clk, LifecycleConfig{}, zaptest.NewLogger(t))
	return l, transport, clk
}

func TestLifecycle_AutoCancelFiresExactlyOnce(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	ctx := context.Background()

	clk.Set(createdAt.Add(5*time.Minute - time.Second))
	assert.False(t, l.Tick(ctx))
	assert.Equal(t, model.ReservationDraft, l.State())

	clk.Set(createdAt.Add(5 * time.Minute))
	fired := 0
	for i := 0; i < 100; i++ {
		if l.Tick(ctx) {
			fired++
		}
		clk.Advance(time.Second)
	}

	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, transport.count("expire"))
	assert.Equal(t, model.ReservationCancelled, l.State())
}

func TestLifecycle_AutoCancelIsLocalEvenIfTransportFails(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	transport.fail("expire", errors.New("network down"))

	clk.Set(createdAt.Add(6 * time.Minute))
	assert.True(t, l.Tick(context.Background()))
	assert.False(t, l.Tick(context.Background()))

	assert.Equal(t, model.ReservationCancelled, l.State())
	assert.Equal(t, 1, transport.count("expire"))
}

func TestLifecycle_UserCancelThenDeadlineSendsOneCancel(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	ctx := context.Background()

	require.NoError(t, l.Cancel(ctx))
	clk.Set(createdAt.Add(10 * time.Minute))
	assert.False(t, l.Tick(ctx))

	err := l.Cancel(ctx)
	assert.True(t, IsBenign(err))

	assert.Equal(t, 1, transport.count("cancel"))
	assert.Equal(t, 0, transport.count("expire"))
	assert.Equal(t, model.ReservationCancelled, l.State())
}

func TestLifecycle_DeadlineThenUserCancelIsBenign(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	ctx := context.Background()

	clk.Set(createdAt.Add(5 * time.Minute))
	require.True(t, l.Tick(ctx))

	err := l.Cancel(ctx)
	var terminal *AlreadyTerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, model.ReservationCancelled, terminal.State)
	assert.Equal(t, 1, transport.count("expire"))
}

func TestLifecycle_TimerStopsOnConfirm(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.Start(ctx)
	require.True(t, l.TimerRunning())

	require.NoError(t, l.Confirm(ctx))
	assert.False(t, l.TimerRunning())
	assert.Equal(t, model.ReservationConfirmed, l.State())

	clk.Set(createdAt.Add(time.Hour))
	assert.False(t, l.Tick(ctx))
	assert.Equal(t, 0, transport.count("expire"))
	assert.Equal(t, model.ReservationConfirmed, l.State())
}

func TestLifecycle_TimerCancelsExpiredDraft(t *testing.T) {
	clk := clock.NewFake(createdAt)
	transport := newFakeTransport(clk.Now)
	l := NewLifecycle(newReservation(model.ReservationDraft), transport, clk,
		LifecycleConfig{TickInterval: 5 * time.Millisecond}, zaptest.NewLogger(t))

	var states []model.ReservationState
	changed := make(chan struct{}, 1)
	l.OnChange(func(r *model.Reservation) {
		states = append(states, r.State)
		changed <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	clk.Set(createdAt.Add(5 * time.Minute))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("draft was not cancelled by the timer")
	}

	assert.Eventually(t, func() bool { return !l.TimerRunning() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []model.ReservationState{model.ReservationCancelled}, states)
	assert.Equal(t, 1, transport.count("expire"))
}

func TestLifecycle_CheckInRequiresStart(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationConfirmed)
	ctx := context.Background()

	clk.Set(at(10, 59))
	err := l.CheckIn(ctx)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "check_in", invalid.Transition)
	assert.Equal(t, model.ReservationConfirmed, invalid.From)
	assert.Equal(t, 0, transport.count("check_in"))

	clk.Set(at(11, 0))
	require.NoError(t, l.CheckIn(ctx))
	assert.Equal(t, model.ReservationCheckedIn, l.State())

	require.NoError(t, l.CheckOut(ctx))
	assert.Equal(t, model.ReservationCheckedOut, l.State())
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state model.ReservationState
		call  func(*Lifecycle, context.Context) error
	}{
		{name: "confirm from checked in", state: model.ReservationCheckedIn, call: (*Lifecycle).Confirm},
		{name: "cancel from checked in", state: model.ReservationCheckedIn, call: (*Lifecycle).Cancel},
		{name: "check in from draft", state: model.ReservationDraft, call: (*Lifecycle).CheckIn},
		{name: "check out from confirmed", state: model.ReservationConfirmed, call: (*Lifecycle).CheckOut},
		{name: "confirm from confirmed", state: model.ReservationConfirmed, call: (*Lifecycle).Confirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, clk := newTestLifecycle(t, tt.state)
			clk.Set(at(11, 30))

			err := tt.call(l, context.Background())

			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.False(t, IsBenign(err))
			assert.Equal(t, tt.state, l.State())
		})
	}
}

func TestLifecycle_TerminalStatesIgnoreCommands(t *testing.T) {
	for _, state := range []model.ReservationState{model.ReservationCancelled, model.ReservationCheckedOut} {
		l, transport, _ := newTestLifecycle(t, state)
		ctx := context.Background()

		for _, call := range []func(context.Context) error{l.Confirm, l.Cancel, l.CheckIn, l.CheckOut} {
			err := call(ctx)
			assert.True(t, IsBenign(err), "state %s: %v", state, err)
		}
		assert.Equal(t, state, l.State())
		assert.Empty(t, transport.calls)
	}
}

func TestLifecycle_TransportErrorLeavesStateUntouched(t *testing.T) {
	l, transport, _ := newTestLifecycle(t, model.ReservationDraft)
	boom := errors.New("503")
	transport.fail("confirm", boom)

	err := l.Confirm(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, model.ReservationDraft, l.State())
}

func TestLifecycle_ApplyServerSnapshotWins(t *testing.T) {
	l, _, _ := newTestLifecycle(t, model.ReservationDraft)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	snapshot := newReservation(model.ReservationConfirmed)
	snapshot.TimeRange.End = at(12, 30)
	require.NoError(t, l.Apply(snapshot))

	assert.Equal(t, model.ReservationConfirmed, l.State())
	assert.Equal(t, at(12, 30), l.Reservation().TimeRange.End)
	assert.False(t, l.TimerRunning())

	other := newReservation(model.ReservationCancelled)
	other.ID = 7
	assert.ErrorIs(t, l.Apply(other), ErrReservationNotFound)
}

func TestLifecycle_OutdatedDraftSnapshotDoesNotUndoConfirm(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	// Опрос прочитал черновик до подтверждения, а применяется после него
	clk.Set(createdAt.Add(5*time.Minute - time.Second))
	polled := l.Reservation()
	require.NoError(t, l.Confirm(ctx))

	require.NoError(t, l.Apply(polled))
	assert.Equal(t, model.ReservationConfirmed, l.State())
	assert.False(t, l.TimerRunning())

	clk.Set(createdAt.Add(5 * time.Minute))
	assert.False(t, l.Tick(ctx))
	assert.Equal(t, model.ReservationConfirmed, l.State())
	assert.Equal(t, 0, transport.count("expire"))
	assert.Equal(t, 0, transport.count("cancel"))
	assert.Equal(t, model.ReservationConfirmed, transport.state(42))
}

func TestLifecycle_AutoCancelSparesServerConfirmedReservation(t *testing.T) {
	l, transport, clk := newTestLifecycle(t, model.ReservationDraft)
	ctx := context.Background()

	// Подтверждено с другого устройства, локальный снимок ещё черновик
	_, err := transport.Confirm(ctx, 42)
	require.NoError(t, err)

	clk.Set(createdAt.Add(5 * time.Minute))
	assert.True(t, l.Tick(ctx))
	assert.Equal(t, model.ReservationCancelled, l.State())
	assert.Equal(t, model.ReservationConfirmed, transport.state(42))

	// Следующий опрос возвращает серверное состояние
	confirmed := newReservation(model.ReservationConfirmed)
	confirmed.UpdatedAt = createdAt.Add(4 * time.Minute)
	require.NoError(t, l.Apply(confirmed))
	assert.Equal(t, model.ReservationConfirmed, l.State())
}

func TestLifecycle_CountdownAndCheckinDeadline(t *testing.T) {
	l, _, clk := newTestLifecycle(t, model.ReservationDraft)

	assert.Equal(t, "5 minutes", l.Countdown())
	clk.Advance(61 * time.Second)
	assert.Equal(t, "4 minutes", l.Countdown())
	clk.Set(createdAt.Add(4 * time.Minute))
	assert.Equal(t, "60 seconds", l.Countdown())
	clk.Set(createdAt.Add(5*time.Minute - time.Second))
	assert.Equal(t, "1 seconds", l.Countdown())
	clk.Set(createdAt.Add(time.Hour))
	assert.Equal(t, "0 seconds", l.Countdown())

	assert.Equal(t, at(11, 10), l.CheckinDeadline())

	short := model.TimeRange{Start: at(11, 0), End: at(11, 5)}
	assert.Equal(t, at(11, 5), CheckinDeadline(short, DefaultCheckinGrace))
}

func TestLifecycle_CountdownNotifiesOnChange(t *testing.T) {
	l, _, clk := newTestLifecycle(t, model.ReservationDraft)
	var got []string
	l.OnCountdown(func(s string) { got = append(got, s) })

	ctx := context.Background()
	l.Tick(ctx)
	clk.Advance(time.Second)
	l.Tick(ctx)
	clk.Set(createdAt.Add(4*time.Minute + 30*time.Second))
	l.Tick(ctx)

	assert.Equal(t, []string{"5 minutes", "30 seconds"}, got)
}

func TestDraftToAutoCancelScenario(t *testing.T) {
	clk := clock.NewFake(createdAt)
	transport := newFakeTransport(clk.Now)
	ctx := context.Background()

	grid := model.NewSlotGrid(at(9, 0), 30*time.Minute, 16, "R1")
	ctrl := selection.NewController(grid, selection.DefaultMaxRun)
	ctrl.Select("R1", 4)
	ctrl.Select("R1", 5)

	u1 := model.UserRef{ID: 1, Name: "Ada"}
	req, err := NewDraftBuilder(0).Build(grid, ctrl.Selection(), []model.UserRef{u1})
	require.NoError(t, err)
	assert.Equal(t, "R1", req.ResourceID)
	assert.Equal(t, at(11, 0), req.Start)
	assert.Equal(t, at(12, 0), req.End)
	assert.Equal(t, []model.UserRef{u1}, req.Requesters)

	res, err := transport.SubmitReservationRequest(ctx, req)
	require.NoError(t, err)
	l := NewLifecycle(res, transport, clk, LifecycleConfig{}, zaptest.NewLogger(t))
	require.Equal(t, model.ReservationDraft, l.State())

	clk.Advance(5 * time.Minute)
	assert.True(t, l.Tick(ctx))
	assert.Equal(t, model.ReservationCancelled, l.State())
}

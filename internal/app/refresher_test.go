package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/service"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubFetcher struct {
	mu     sync.Mutex
	calls  int
	scopes []model.ReservationScope
	result []*model.Reservation
	err    error
}

func (f *stubFetcher) FetchReservations(ctx context.Context, scope model.ReservationScope) ([]*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.scopes = append(f.scopes, scope)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *stubFetcher) set(result []*model.Reservation, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

func (f *stubFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func reservation(id int64, state model.ReservationState) *model.Reservation {
	start := time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)
	return &model.Reservation{
		ID:        id,
		Resource:  model.ResourceRef{ID: "SN135"},
		TimeRange: model.TimeRange{Start: start, End: start.Add(time.Hour)},
		State:     state,
	}
}

func TestRefresher_RefreshReplacesCollection(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set([]*model.Reservation{
		reservation(1, model.ReservationConfirmed),
		reservation(2, model.ReservationCheckedIn),
	}, nil)

	coll := service.NewCollection()
	coll.Upsert(reservation(9, model.ReservationDraft))

	scope := model.ReservationScope{UserID: 7}
	r := NewRefresher(fetcher, scope, coll, RefresherConfig{}, zaptest.NewLogger(t))

	require.NoError(t, r.Refresh(context.Background()))

	assert.Equal(t, 2, coll.Len())
	_, stale := coll.Get(9)
	assert.False(t, stale)
	assert.Equal(t, []model.ReservationScope{scope}, fetcher.scopes)
}

func TestRefresher_FailureKeepsCollection(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(nil, errors.New("connection refused"))

	coll := service.NewCollection()
	coll.Upsert(reservation(1, model.ReservationConfirmed))

	r := NewRefresher(fetcher, model.ReservationScope{All: true}, coll, RefresherConfig{}, zaptest.NewLogger(t))

	assert.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, coll.Len())
}

func TestRefresher_BreakerOpensAfterFailures(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(nil, errors.New("503"))

	r := NewRefresher(fetcher, model.ReservationScope{All: true}, service.NewCollection(),
		RefresherConfig{FailureThreshold: 2, OpenTimeout: time.Hour}, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.Error(t, r.Refresh(ctx))
	assert.Error(t, r.Refresh(ctx))

	err := r.Refresh(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, fetcher.count())
}

func TestRefresher_RunStopsOnCancel(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set([]*model.Reservation{reservation(1, model.ReservationConfirmed)}, nil)

	coll := service.NewCollection()
	r := NewRefresher(fetcher, model.ReservationScope{UserID: 1}, coll,
		RefresherConfig{Interval: 5 * time.Millisecond}, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return fetcher.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}

	calls := fetcher.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, fetcher.count())
	assert.Equal(t, 1, coll.Len())
}

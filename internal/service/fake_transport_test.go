package service

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
)

// fakeTransport запоминает вызовы и отвечает заранее заданными ошибками
type fakeTransport struct {
	mu sync.Mutex

	nextID    int64
	now       func() time.Time
	calls     map[string]int
	failNext  map[string]error
	submitted []model.ReservationRequest
	states    map[int64]model.ReservationState
	listing   []*model.Reservation
}

func newFakeTransport(now func() time.Time) *fakeTransport {
	return &fakeTransport{
		nextID:   100,
		now:      now,
		calls:    make(map[string]int),
		failNext: make(map[string]error),
		states:   make(map[int64]model.ReservationState),
	}
}

func (f *fakeTransport) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = err
}

func (f *fakeTransport) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTransport) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if err, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		return err
	}
	return nil
}

func (f *fakeTransport) SubmitReservationRequest(ctx context.Context, req model.ReservationRequest) (*model.Reservation, error) {
	if err := f.record("submit"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.submitted = append(f.submitted, req)
	f.states[f.nextID] = model.ReservationDraft
	now := f.now()
	return &model.Reservation{
		ID:         f.nextID,
		RequestKey: req.Key,
		Resource:   model.ResourceRef{ID: req.ResourceID, Name: req.ResourceID, Kind: model.ResourceRoom},
		TimeRange:  model.TimeRange{Start: req.Start, End: req.End},
		Requesters: req.Requesters,
		State:      model.ReservationDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (f *fakeTransport) Confirm(ctx context.Context, id int64) (*model.Reservation, error) {
	return nil, f.move("confirm", id, model.ReservationConfirmed)
}

func (f *fakeTransport) Cancel(ctx context.Context, id int64) error {
	return f.move("cancel", id, model.ReservationCancelled)
}

func (f *fakeTransport) ExpireDraft(ctx context.Context, id int64) error {
	if err := f.record("expire"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.states[id]; ok && st != model.ReservationDraft {
		if st == model.ReservationCancelled {
			return nil
		}
		return ErrStaleState
	}
	f.states[id] = model.ReservationCancelled
	return nil
}

func (f *fakeTransport) state(id int64) model.ReservationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[id]
}

func (f *fakeTransport) CheckIn(ctx context.Context, id int64) (*model.Reservation, error) {
	return nil, f.move("check_in", id, model.ReservationCheckedIn)
}

func (f *fakeTransport) CheckOut(ctx context.Context, id int64) (*model.Reservation, error) {
	return nil, f.move("check_out", id, model.ReservationCheckedOut)
}

func (f *fakeTransport) FetchAvailability(ctx context.Context, scope model.AvailabilityScope, date time.Time) (*model.SlotGrid, error) {
	if err := f.record("availability"); err != nil {
		return nil, err
	}
	return model.NewSlotGrid(date, 30*time.Minute, 16, "R1"), nil
}

func (f *fakeTransport) FetchReservations(ctx context.Context, scope model.ReservationScope) ([]*model.Reservation, error) {
	if err := f.record("fetch"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listing, nil
}

func (f *fakeTransport) move(op string, id int64, to model.ReservationState) error {
	if err := f.record(op); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = to
	return nil
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/google/uuid"
)

type fakeResourceStore struct {
	resources map[string]*model.Resource
}

func newFakeResourceStore(resources ...*model.Resource) *fakeResourceStore {
	s := &fakeResourceStore{resources: make(map[string]*model.Resource)}
	for _, r := range resources {
		s.resources[r.ID] = r
	}
	return s
}

func (s *fakeResourceStore) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	return s.resources[id], nil
}

func (s *fakeResourceStore) ListByKind(ctx context.Context, kind model.ResourceKind) ([]*model.Resource, error) {
	var out []*model.Resource
	for _, r := range s.resources {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeReservationStore хранит бронирования в памяти с семантикой ReservationRepository
type fakeReservationStore struct {
	mu sync.Mutex

	now          func() time.Time
	nextID       int64
	reservations map[int64]*model.Reservation
	locked       []string
	creates      int
	staleCutoff  time.Time

	// beforeCreate подменяет вставку, например чтобы изобразить параллельную заявку
	beforeCreate func(res *model.Reservation) error
}

func newFakeReservationStore(now func() time.Time) *fakeReservationStore {
	return &fakeReservationStore{
		now:          now,
		nextID:       1,
		reservations: make(map[int64]*model.Reservation),
	}
}

// put кладёт бронирование напрямую, минуя сервис
func (s *fakeReservationStore) put(res *model.Reservation) *model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res.ID == 0 {
		res.ID = s.nextID
		s.nextID++
	}
	if res.RequestKey == uuid.Nil {
		res.RequestKey = uuid.New()
	}
	s.reservations[res.ID] = res.Clone()
	return res
}

func (s *fakeReservationStore) stateOf(id int64) model.ReservationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id].State
}

func (s *fakeReservationStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeReservationStore) LockResource(ctx context.Context, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = append(s.locked, resourceID)
	return nil
}

func (s *fakeReservationStore) HasOverlap(ctx context.Context, resourceID string, tr model.TimeRange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.Resource.ID == resourceID && stateIn(r.State, model.ActiveReservationStates) && r.TimeRange.Overlaps(tr) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeReservationStore) Create(ctx context.Context, res *model.Reservation) error {
	if s.beforeCreate != nil {
		if err := s.beforeCreate(res); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	res.ID = s.nextID
	s.nextID++
	res.CreatedAt = s.now()
	res.UpdatedAt = res.CreatedAt
	s.reservations[res.ID] = res.Clone()
	return nil
}

func (s *fakeReservationStore) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id].Clone(), nil
}

func (s *fakeReservationStore) GetByRequestKey(ctx context.Context, key uuid.UUID) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.RequestKey == key {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

func (s *fakeReservationStore) ListActiveByUser(ctx context.Context, userID int64) ([]*model.Reservation, error) {
	return s.filter(func(r *model.Reservation) bool {
		return stateIn(r.State, model.ActiveReservationStates) && r.HasRequester(userID)
	}), nil
}

func (s *fakeReservationStore) ListActive(ctx context.Context) ([]*model.Reservation, error) {
	return s.filter(func(r *model.Reservation) bool {
		return stateIn(r.State, model.ActiveReservationStates)
	}), nil
}

func (s *fakeReservationStore) ListActiveInRange(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	window := model.TimeRange{Start: from, End: to}
	return s.filter(func(r *model.Reservation) bool {
		return stateIn(r.State, model.ActiveReservationStates) && r.TimeRange.Overlaps(window)
	}), nil
}

func (s *fakeReservationStore) Transition(ctx context.Context, id int64, to model.ReservationState, from ...model.ReservationState) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || !stateIn(r.State, from) {
		return nil, nil
	}
	r.State = to
	r.UpdatedAt = s.now()
	return r.Clone(), nil
}

func (s *fakeReservationStore) CancelStaleDrafts(ctx context.Context, createdBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleCutoff = createdBefore
	var n int64
	for _, r := range s.reservations {
		if r.State == model.ReservationDraft && !r.CreatedAt.After(createdBefore) {
			r.State = model.ReservationCancelled
			r.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

func (s *fakeReservationStore) filter(keep func(*model.Reservation) bool) []*model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

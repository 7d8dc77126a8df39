package service

import (
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/google/uuid"
)

// DefaultDropInDuration длительность бронирования, которое сотрудник создаёт за гостя
const DefaultDropInDuration = 2 * time.Hour

// DraftBuilder собирает заявку на бронирование из выбранных слотов
type DraftBuilder struct {
	dropInDuration time.Duration
	newKey         func() uuid.UUID
}

func NewDraftBuilder(dropInDuration time.Duration) *DraftBuilder {
	if dropInDuration <= 0 {
		dropInDuration = DefaultDropInDuration
	}
	return &DraftBuilder{
		dropInDuration: dropInDuration,
		newKey:         uuid.New,
	}
}

// Build собирает заявку студента: конец совпадает с концом выбранного отрезка
func (b *DraftBuilder) Build(grid *model.SlotGrid, sel model.Selection, requesters []model.UserRef) (model.ReservationRequest, error) {
	if err := validateDraft(sel, requesters); err != nil {
		return model.ReservationRequest{}, err
	}

	return b.request(sel, requesters, grid.SlotStart(sel.First()), grid.SlotEnd(sel.Last())), nil
}

// BuildDropIn собирает заявку сотрудника за гостей.
// Гость получает фиксированный блок от начала выбора, сколько бы слотов ни было выбрано.
func (b *DraftBuilder) BuildDropIn(grid *model.SlotGrid, sel model.Selection, requesters []model.UserRef) (model.ReservationRequest, error) {
	if err := validateDraft(sel, requesters); err != nil {
		return model.ReservationRequest{}, err
	}

	start := grid.SlotStart(sel.First())
	return b.request(sel, requesters, start, start.Add(b.dropInDuration)), nil
}

func (b *DraftBuilder) request(sel model.Selection, requesters []model.UserRef, start, end time.Time) model.ReservationRequest {
	return model.ReservationRequest{
		Key:        b.newKey(),
		ResourceID: sel.ResourceID,
		Start:      start,
		End:        end,
		Requesters: append([]model.UserRef(nil), requesters...),
	}
}

func validateDraft(sel model.Selection, requesters []model.UserRef) error {
	if sel.Empty() {
		return ErrEmptySelection
	}
	if len(requesters) == 0 {
		return ErrNoRequester
	}
	return nil
}

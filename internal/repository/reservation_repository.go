package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationSelect = `
	SELECT r.id, r.request_key, r.resource_id, res.name, res.kind,
	       r.start_time, r.end_time, r.state, r.created_at, r.updated_at
	FROM reservations r
	JOIN resources res ON res.id = r.resource_id
`

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт бронирование вместе со списком заявителей
func (r *ReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	return r.InTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO reservations (request_key, resource_id, start_time, end_time, state)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`

		err := r.QueryRow(
			ctx, query,
			res.RequestKey,
			res.Resource.ID,
			res.TimeRange.Start,
			res.TimeRange.End,
			res.State,
		).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		for i, u := range res.Requesters {
			_, err := r.ExecAffected(ctx,
				`INSERT INTO reservation_users (reservation_id, user_id, position) VALUES ($1, $2, $3)`,
				res.ID, u.ID, i,
			)
			if err != nil {
				return fmt.Errorf("add reservation user: %w", err)
			}
		}

		return nil
	})
}

// GetByID получает бронирование по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	return r.getOne(ctx, reservationSelect+` WHERE r.id = $1`, id)
}

// GetByRequestKey получает бронирование по ключу идемпотентности
func (r *ReservationRepository) GetByRequestKey(ctx context.Context, key uuid.UUID) (*model.Reservation, error) {
	return r.getOne(ctx, reservationSelect+` WHERE r.request_key = $1`, key)
}

// ListActiveByUser получает живые бронирования пользователя
func (r *ReservationRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*model.Reservation, error) {
	query := reservationSelect + `
		WHERE r.state = ANY($1)
		  AND EXISTS (SELECT 1 FROM reservation_users ru WHERE ru.reservation_id = r.id AND ru.user_id = $2)
		ORDER BY r.start_time
	`
	return r.list(ctx, query, activeStates(), userID)
}

// ListActive получает все живые бронирования
func (r *ReservationRepository) ListActive(ctx context.Context) ([]*model.Reservation, error) {
	query := reservationSelect + `
		WHERE r.state = ANY($1)
		ORDER BY r.start_time
	`
	return r.list(ctx, query, activeStates())
}

// ListActiveInRange получает живые бронирования, пересекающие интервал
func (r *ReservationRepository) ListActiveInRange(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	query := reservationSelect + `
		WHERE r.state = ANY($1)
		  AND r.start_time < $3
		  AND r.end_time > $2
		ORDER BY r.resource_id, r.start_time
	`
	return r.list(ctx, query, activeStates(), from, to)
}

// LockResource берёт транзакционную advisory-блокировку ресурса до конца транзакции
func (r *ReservationRepository) LockResource(ctx context.Context, resourceID string) error {
	if _, err := r.ExecAffected(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, resourceID); err != nil {
		return fmt.Errorf("lock resource %s: %w", resourceID, err)
	}
	return nil
}

// HasOverlap проверяет, занят ли ресурс на интервале; строки блокируются до конца транзакции
func (r *ReservationRepository) HasOverlap(ctx context.Context, resourceID string, tr model.TimeRange) (bool, error) {
	query := `
		SELECT id FROM reservations
		WHERE resource_id = $1
		  AND state = ANY($2)
		  AND start_time < $4
		  AND end_time > $3
		LIMIT 1
		FOR UPDATE
	`

	var id int64
	err := r.QueryRow(ctx, query, resourceID, activeStates(), tr.Start, tr.End).Scan(&id)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check reservation overlap: %w", err)
	}
	return true, nil
}

// Transition меняет состояние, только если текущее входит в from.
// Возвращает nil, если бронирование не найдено или уже в другом состоянии.
func (r *ReservationRepository) Transition(ctx context.Context, id int64, to model.ReservationState, from ...model.ReservationState) (*model.Reservation, error) {
	query := `
		UPDATE reservations
		SET state = $1, updated_at = now()
		WHERE id = $2 AND state = ANY($3)
	`

	affected, err := r.ExecAffected(ctx, query, to, id, stateStrings(from))
	if err != nil {
		return nil, fmt.Errorf("update reservation state: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// CancelStaleDrafts отменяет черновики, созданные раньше указанного момента
func (r *ReservationRepository) CancelStaleDrafts(ctx context.Context, createdBefore time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET state = 'cancelled', updated_at = now()
		WHERE state = 'draft' AND created_at <= $1
	`

	affected, err := r.ExecAffected(ctx, query, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("cancel stale drafts: %w", err)
	}
	return affected, nil
}

func (r *ReservationRepository) getOne(ctx context.Context, query string, args ...any) (*model.Reservation, error) {
	res, err := scanReservation(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	if err := r.loadRequesters(ctx, []*model.Reservation{res}); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	reservations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Reservation, error) {
		return scanReservation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}

	if err := r.loadRequesters(ctx, reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// loadRequesters одним запросом подтягивает заявителей для списка бронирований
func (r *ReservationRepository) loadRequesters(ctx context.Context, reservations []*model.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Reservation, len(reservations))
	ids := make([]int64, 0, len(reservations))
	for _, res := range reservations {
		byID[res.ID] = res
		ids = append(ids, res.ID)
	}

	query := `
		SELECT ru.reservation_id, ` + prefixed("u", userColumns) + `
		FROM reservation_users ru
		JOIN users u ON u.id = ru.user_id
		WHERE ru.reservation_id = ANY($1)
		ORDER BY ru.reservation_id, ru.position
	`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load reservation users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reservationID int64
		var user model.User
		err := rows.Scan(
			&reservationID,
			&user.ID,
			&user.TelegramID,
			&user.Username,
			&user.FirstName,
			&user.LastName,
			&user.IsStaff,
			&user.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan reservation user: %w", err)
		}
		if res, ok := byID[reservationID]; ok {
			res.Requesters = append(res.Requesters, user.Ref())
		}
	}

	return rows.Err()
}

func scanReservation(row interface{ Scan(dest ...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID,
		&res.RequestKey,
		&res.Resource.ID,
		&res.Resource.Name,
		&res.Resource.Kind,
		&res.TimeRange.Start,
		&res.TimeRange.End,
		&res.State,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func activeStates() []string {
	return stateStrings(model.ActiveReservationStates)
}

func stateStrings(states []model.ReservationState) []string {
	result := make([]string, len(states))
	for i, s := range states {
		result[i] = string(s)
	}
	return result
}

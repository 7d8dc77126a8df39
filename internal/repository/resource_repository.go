package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/space_booking_bot/internal/model"
	"github.com/Freeeeeet/space_booking_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceRepository struct {
	*base.Repository
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает ресурс по ID
func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	query := `
		SELECT id, name, kind, reservable, created_at
		FROM resources
		WHERE id = $1
	`

	var res model.Resource
	err := r.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.Name,
		&res.Kind,
		&res.Reservable,
		&res.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resource by id: %w", err)
	}

	return &res, nil
}

// ListByKind получает все ресурсы указанного типа
func (r *ResourceRepository) ListByKind(ctx context.Context, kind model.ResourceKind) ([]*model.Resource, error) {
	query := `
		SELECT id, name, kind, reservable, created_at
		FROM resources
		WHERE kind = $1
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("list resources by kind: %w", err)
	}
	defer rows.Close()

	var resources []*model.Resource
	for rows.Next() {
		var res model.Resource
		err := rows.Scan(
			&res.ID,
			&res.Name,
			&res.Kind,
			&res.Reservable,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		resources = append(resources, &res)
	}

	return resources, rows.Err()
}

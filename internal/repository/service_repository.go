package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cusspwk/cuss/internal/model"
)

// ServiceRepository stores the services listed on the public site.
type ServiceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository creates a new service repository.
func NewServiceRepository(pool *pgxpool.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const serviceColumns = `id, name, slug, description, image_url, price_label,
	position, is_active, created_at, updated_at`

// List returns services ordered by position. With activeOnly, hidden
// services are left out.
func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+` FROM services
		WHERE is_active OR NOT $1
		ORDER BY position, name`, activeOnly)
	if err != nil {
		return nil, wrapErr("list services", err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, wrapErr("list services", rows.Err())
}

// GetBySlug fetches one service by its URL slug.
func (r *ServiceRepository) GetBySlug(ctx context.Context, slug string) (*model.Service, error) {
	return scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE slug = $1`, slug))
}

// Create inserts s, assigning its ID and timestamps.
func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) error {
	now := time.Now().UTC()
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.Name, s.Slug, s.Description, s.ImageURL, s.PriceLabel,
		s.Position, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	return wrapErr("create service", err)
}

// Update overwrites every mutable column of s.
func (r *ServiceRepository) Update(ctx context.Context, s *model.Service) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $2, slug = $3, description = $4, image_url = $5, price_label = $6,
		    position = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		s.ID, s.Name, s.Slug, s.Description, s.ImageURL, s.PriceLabel,
		s.Position, s.IsActive, s.UpdatedAt,
	)
	return execOne("update service", tag, err)
}

// Delete removes a service by ID.
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	return execOne("delete service", tag, err)
}

func scanService(row pgx.Row) (*model.Service, error) {
	var s model.Service
	err := row.Scan(
		&s.ID, &s.Name, &s.Slug, &s.Description, &s.ImageURL, &s.PriceLabel,
		&s.Position, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("scan service", err)
	}
	return &s, nil
}

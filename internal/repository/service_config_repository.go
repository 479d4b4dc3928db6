package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cusspwk/cuss/internal/model"
)

// ServiceConfigRepository stores the per-service wizard gating.
type ServiceConfigRepository struct {
	pool *pgxpool.Pool
}

// NewServiceConfigRepository creates a new service config repository.
func NewServiceConfigRepository(pool *pgxpool.Pool) *ServiceConfigRepository {
	return &ServiceConfigRepository{pool: pool}
}

const serviceConfigColumns = `id, service_name, show_pickup, show_destination, show_directions,
	first_step_fields, second_step_fields, created_at, updated_at`

// ListServiceConfigs returns every configuration ordered by service name.
func (r *ServiceConfigRepository) ListServiceConfigs(ctx context.Context) ([]model.ServiceConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceConfigColumns+` FROM service_configs ORDER BY service_name`)
	if err != nil {
		return nil, wrapErr("list service configs", err)
	}
	defer rows.Close()

	var out []model.ServiceConfig
	for rows.Next() {
		c, err := scanServiceConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, wrapErr("list service configs", rows.Err())
}

// GetByService fetches the configuration for one service name.
func (r *ServiceConfigRepository) GetByService(ctx context.Context, service string) (*model.ServiceConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+serviceConfigColumns+` FROM service_configs WHERE service_name = $1`, service)
	return scanServiceConfig(row)
}

// Upsert creates or replaces the configuration keyed by c.ServiceName.
// c.ID and timestamps are filled from the stored row.
func (r *ServiceConfigRepository) Upsert(ctx context.Context, c *model.ServiceConfig) error {
	first, err := json.Marshal(nonNil(c.FirstStepFields))
	if err != nil {
		return fmt.Errorf("encode firstStepFields: %w", err)
	}
	second, err := json.Marshal(nonNil(c.SecondStepFields))
	if err != nil {
		return fmt.Errorf("encode secondStepFields: %w", err)
	}
	now := time.Now().UTC()

	err = r.pool.QueryRow(ctx, `
		INSERT INTO service_configs (`+serviceConfigColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (service_name) DO UPDATE
		SET show_pickup = EXCLUDED.show_pickup,
		    show_destination = EXCLUDED.show_destination,
		    show_directions = EXCLUDED.show_directions,
		    first_step_fields = EXCLUDED.first_step_fields,
		    second_step_fields = EXCLUDED.second_step_fields,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`,
		uuid.NewString(), c.ServiceName, c.ShowPickup, c.ShowDestination, c.ShowDirections,
		first, second, now,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return wrapErr("upsert service config", err)
}

// Delete removes the configuration with the given ID.
func (r *ServiceConfigRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_configs WHERE id = $1`, id)
	return execOne("delete service config", tag, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanServiceConfig(row pgx.Row) (*model.ServiceConfig, error) {
	var (
		c             model.ServiceConfig
		first, second []byte
	)
	err := row.Scan(
		&c.ID, &c.ServiceName, &c.ShowPickup, &c.ShowDestination, &c.ShowDirections,
		&first, &second, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("scan service config", err)
	}
	if err := json.Unmarshal(first, &c.FirstStepFields); err != nil {
		return nil, fmt.Errorf("decode firstStepFields of %q: %w", c.ServiceName, err)
	}
	if err := json.Unmarshal(second, &c.SecondStepFields); err != nil {
		return nil, fmt.Errorf("decode secondStepFields of %q: %w", c.ServiceName, err)
	}
	return &c, nil
}

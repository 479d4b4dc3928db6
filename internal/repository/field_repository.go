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

// FieldRepository stores the booking form field registry.
type FieldRepository struct {
	pool *pgxpool.Pool
}

// NewFieldRepository creates a new field repository.
func NewFieldRepository(pool *pgxpool.Pool) *FieldRepository {
	return &FieldRepository{pool: pool}
}

const fieldColumns = `id, label, name, kind, required, readonly, position,
	options, is_active, auto_calculate, created_at, updated_at`

// ListFields returns every field, active or not, ordered by position.
func (r *FieldRepository) ListFields(ctx context.Context) ([]model.FieldDescriptor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fieldColumns+` FROM form_fields ORDER BY position, created_at`)
	if err != nil {
		return nil, wrapErr("list form fields", err)
	}
	defer rows.Close()

	var out []model.FieldDescriptor
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, wrapErr("list form fields", rows.Err())
}

// Get fetches one field by ID.
func (r *FieldRepository) Get(ctx context.Context, id string) (*model.FieldDescriptor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+fieldColumns+` FROM form_fields WHERE id = $1`, id)
	f, err := scanField(row)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts f, assigning its ID and timestamps.
func (r *FieldRepository) Create(ctx context.Context, f *model.FieldDescriptor) error {
	options, rule, err := encodeFieldJSON(f)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	f.ID = uuid.NewString()
	f.CreatedAt, f.UpdatedAt = now, now

	_, err = r.pool.Exec(ctx, `
		INSERT INTO form_fields (`+fieldColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		f.ID, f.Label, f.Name, f.Kind, f.Required, f.Readonly, f.Position,
		options, f.IsActive, rule, f.CreatedAt, f.UpdatedAt,
	)
	return wrapErr("create form field", err)
}

// Update overwrites every mutable column of f.
func (r *FieldRepository) Update(ctx context.Context, f *model.FieldDescriptor) error {
	options, rule, err := encodeFieldJSON(f)
	if err != nil {
		return err
	}
	f.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE form_fields
		SET label = $2, name = $3, kind = $4, required = $5, readonly = $6,
		    position = $7, options = $8, is_active = $9, auto_calculate = $10,
		    updated_at = $11
		WHERE id = $1`,
		f.ID, f.Label, f.Name, f.Kind, f.Required, f.Readonly,
		f.Position, options, f.IsActive, rule, f.UpdatedAt,
	)
	return execOne("update form field", tag, err)
}

// Delete removes a field by ID.
func (r *FieldRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM form_fields WHERE id = $1`, id)
	return execOne("delete form field", tag, err)
}

func encodeFieldJSON(f *model.FieldDescriptor) (options, rule []byte, err error) {
	opts := f.Options
	if opts == nil {
		opts = []string{}
	}
	if options, err = json.Marshal(opts); err != nil {
		return nil, nil, fmt.Errorf("encode options: %w", err)
	}
	if f.AutoCalculate != nil {
		if rule, err = json.Marshal(f.AutoCalculate); err != nil {
			return nil, nil, fmt.Errorf("encode autoCalculate: %w", err)
		}
	}
	return options, rule, nil
}

func scanField(row pgx.Row) (*model.FieldDescriptor, error) {
	var (
		f       model.FieldDescriptor
		options []byte
		rule    []byte
	)
	err := row.Scan(
		&f.ID, &f.Label, &f.Name, &f.Kind, &f.Required, &f.Readonly, &f.Position,
		&options, &f.IsActive, &rule, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("scan form field", err)
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &f.Options); err != nil {
			return nil, fmt.Errorf("decode options of %q: %w", f.Name, err)
		}
	}
	if len(rule) > 0 && string(rule) != "null" {
		f.AutoCalculate = &model.AutoCalculate{}
		if err := json.Unmarshal(rule, f.AutoCalculate); err != nil {
			return nil, fmt.Errorf("decode autoCalculate of %q: %w", f.Name, err)
		}
	}
	return &f, nil
}

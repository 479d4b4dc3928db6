package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cusspwk/cuss/internal/model"
)

// AdminRepository stores back-office accounts.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new admin repository.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// Create inserts a, assigning its ID and creation time.
func (r *AdminRepository) Create(ctx context.Context, a *model.Admin) error {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admins (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.Username, a.PasswordHash, a.CreatedAt)
	return wrapErr("create admin", err)
}

// GetByUsername fetches an admin for login.
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, wrapErr("get admin", err)
	}
	return &a, nil
}

// GetByID fetches an admin by ID.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	var a model.Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at FROM admins WHERE id = $1`, id,
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, wrapErr("get admin", err)
	}
	return &a, nil
}

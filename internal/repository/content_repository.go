package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cusspwk/cuss/internal/model"
)

// ContentRepository stores the editorial content of the public site:
// FAQs, testimonials and the navigation menu.
type ContentRepository struct {
	pool *pgxpool.Pool
}

// NewContentRepository creates a new content repository.
func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

// ─── FAQs ───────────────────────────────────────────────────

// ListFAQs returns FAQs ordered by position.
func (r *ContentRepository) ListFAQs(ctx context.Context, activeOnly bool) ([]model.FAQ, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, question, answer, position, is_active, created_at, updated_at
		FROM faqs
		WHERE is_active OR NOT $1
		ORDER BY position, created_at`, activeOnly)
	if err != nil {
		return nil, wrapErr("list faqs", err)
	}
	defer rows.Close()

	var out []model.FAQ
	for rows.Next() {
		var f model.FAQ
		if err := rows.Scan(&f.ID, &f.Question, &f.Answer, &f.Position, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, wrapErr("scan faq", err)
		}
		out = append(out, f)
	}
	return out, wrapErr("list faqs", rows.Err())
}

// SaveFAQ inserts f when it has no ID, otherwise updates it.
func (r *ContentRepository) SaveFAQ(ctx context.Context, f *model.FAQ) error {
	now := time.Now().UTC()
	f.UpdatedAt = now
	if f.ID == "" {
		f.ID, f.CreatedAt = uuid.NewString(), now
		_, err := r.pool.Exec(ctx, `
			INSERT INTO faqs (id, question, answer, position, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.Question, f.Answer, f.Position, f.IsActive, f.CreatedAt, f.UpdatedAt)
		return wrapErr("create faq", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE faqs SET question = $2, answer = $3, position = $4, is_active = $5, updated_at = $6
		WHERE id = $1`,
		f.ID, f.Question, f.Answer, f.Position, f.IsActive, f.UpdatedAt)
	return execOne("update faq", tag, err)
}

// DeleteFAQ removes a FAQ by ID.
func (r *ContentRepository) DeleteFAQ(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM faqs WHERE id = $1`, id)
	return execOne("delete faq", tag, err)
}

// ─── Testimonials ───────────────────────────────────────────

// ListTestimonials returns testimonials, newest first.
func (r *ContentRepository) ListTestimonials(ctx context.Context, activeOnly bool) ([]model.Testimonial, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, role, content, rating, avatar_url, is_active, created_at, updated_at
		FROM testimonials
		WHERE is_active OR NOT $1
		ORDER BY created_at DESC`, activeOnly)
	if err != nil {
		return nil, wrapErr("list testimonials", err)
	}
	defer rows.Close()

	var out []model.Testimonial
	for rows.Next() {
		var t model.Testimonial
		if err := rows.Scan(&t.ID, &t.Name, &t.Role, &t.Content, &t.Rating, &t.AvatarURL,
			&t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, wrapErr("scan testimonial", err)
		}
		out = append(out, t)
	}
	return out, wrapErr("list testimonials", rows.Err())
}

// SaveTestimonial inserts t when it has no ID, otherwise updates it.
func (r *ContentRepository) SaveTestimonial(ctx context.Context, t *model.Testimonial) error {
	now := time.Now().UTC()
	t.UpdatedAt = now
	if t.ID == "" {
		t.ID, t.CreatedAt = uuid.NewString(), now
		_, err := r.pool.Exec(ctx, `
			INSERT INTO testimonials (id, name, role, content, rating, avatar_url, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID, t.Name, t.Role, t.Content, t.Rating, t.AvatarURL, t.IsActive, t.CreatedAt, t.UpdatedAt)
		return wrapErr("create testimonial", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE testimonials
		SET name = $2, role = $3, content = $4, rating = $5, avatar_url = $6, is_active = $7, updated_at = $8
		WHERE id = $1`,
		t.ID, t.Name, t.Role, t.Content, t.Rating, t.AvatarURL, t.IsActive, t.UpdatedAt)
	return execOne("update testimonial", tag, err)
}

// DeleteTestimonial removes a testimonial by ID.
func (r *ContentRepository) DeleteTestimonial(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	return execOne("delete testimonial", tag, err)
}

// ─── Menu ───────────────────────────────────────────────────

// ListMenu returns menu items ordered by position; top-level items first.
func (r *ContentRepository) ListMenu(ctx context.Context, activeOnly bool) ([]model.MenuItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, label, href, parent_id, position, is_active, created_at, updated_at
		FROM menu_items
		WHERE is_active OR NOT $1
		ORDER BY parent_id NULLS FIRST, position`, activeOnly)
	if err != nil {
		return nil, wrapErr("list menu", err)
	}
	defer rows.Close()

	var out []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Label, &m.Href, &m.ParentID, &m.Position,
			&m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, wrapErr("scan menu item", err)
		}
		out = append(out, m)
	}
	return out, wrapErr("list menu", rows.Err())
}

// SaveMenuItem inserts m when it has no ID, otherwise updates it.
func (r *ContentRepository) SaveMenuItem(ctx context.Context, m *model.MenuItem) error {
	now := time.Now().UTC()
	m.UpdatedAt = now
	if m.ID == "" {
		m.ID, m.CreatedAt = uuid.NewString(), now
		_, err := r.pool.Exec(ctx, `
			INSERT INTO menu_items (id, label, href, parent_id, position, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.ID, m.Label, m.Href, m.ParentID, m.Position, m.IsActive, m.CreatedAt, m.UpdatedAt)
		return wrapErr("create menu item", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE menu_items
		SET label = $2, href = $3, parent_id = $4, position = $5, is_active = $6, updated_at = $7
		WHERE id = $1`,
		m.ID, m.Label, m.Href, m.ParentID, m.Position, m.IsActive, m.UpdatedAt)
	return execOne("update menu item", tag, err)
}

// DeleteMenuItem removes a menu item and, through the foreign key, its children.
func (r *ContentRepository) DeleteMenuItem(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	return execOne("delete menu item", tag, err)
}

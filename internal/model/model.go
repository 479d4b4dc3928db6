// Package model contains domain models for the CUSS Purwakarta booking site.
// Catalog and form records map to the PostgreSQL schema in pkg/db/migrations;
// transactions are stored as MongoDB documents.
package model

import (
	"time"
)

// ─── Catalog ────────────────────────────────────────────────

// Service is one offering listed on the public site ("Antar Jemput", "Kurir", ...).
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	PriceLabel  string    `json:"priceLabel"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FAQ is a question/answer pair shown on the public site.
type FAQ struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Testimonial is a customer quote.
type Testimonial struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	AvatarURL string    `json:"avatarUrl"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MenuItem is one navigation entry. Children reference their parent by ID.
type MenuItem struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Href      string    `json:"href"`
	ParentID  *string   `json:"parentId,omitempty"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Admin is a back-office account.
type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

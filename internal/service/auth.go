package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cusspwk/cuss/internal/auth"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
)

// ─── Auth Errors ────────────────────────────────────────────

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrWeakPassword is returned when a new admin password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

const minPasswordLen = 8

// AdminStore persists admin accounts.
type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) error
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetByID(ctx context.Context, id string) (*model.Admin, error)
}

// AuthService logs admins in and manages their accounts.
type AuthService struct {
	admins AdminStore
	jwt    *auth.JWTService
}

// NewAuthService creates an auth service.
func NewAuthService(admins AdminStore, jwt *auth.JWTService) *AuthService {
	return &AuthService{admins: admins, jwt: jwt}
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*auth.Token, *model.Admin, error) {
	a, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	tok, err := s.jwt.Generate(a.ID, a.Username)
	if err != nil {
		return nil, nil, err
	}
	return tok, a, nil
}

// CreateAdmin registers a new admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	a := &model.Admin{Username: username, PasswordHash: hash}
	if err := s.admins.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Me returns the admin identified by a validated token.
func (s *AuthService) Me(ctx context.Context, adminID string) (*model.Admin, error) {
	return s.admins.GetByID(ctx, adminID)
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/auth"
	"github.com/cusspwk/cuss/internal/middleware"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/repository"
	"github.com/cusspwk/cuss/internal/service"
)

type fakeAuth struct {
	jwt   *auth.JWTService
	admin model.Admin
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*auth.Token, *model.Admin, error) {
	if username != f.admin.Username || password != "rahasia123" {
		return nil, nil, service.ErrInvalidCredentials
	}
	tok, err := f.jwt.Generate(f.admin.ID, f.admin.Username)
	if err != nil {
		return nil, nil, err
	}
	return tok, &f.admin, nil
}

func (f *fakeAuth) Me(_ context.Context, id string) (*model.Admin, error) {
	if id != f.admin.ID {
		return nil, repository.ErrNotFound
	}
	return &f.admin, nil
}

func TestAuthHandler(t *testing.T) {
	jwt := auth.NewJWTService("secret", time.Hour, "cuss")
	fa := &fakeAuth{jwt: jwt, admin: model.Admin{ID: "admin-1", Username: "admin", PasswordHash: "$2a$10$hash"}}

	root := mux.NewRouter()
	public := root.PathPrefix("/api/v1").Subrouter()
	admin := public.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(jwt))
	NewAuthHandler(fa, zap.NewNop()).Routes(public, admin, passthrough)

	rec := do(t, root, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "salah"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])

	rec = do(t, root, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, root, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "rahasia123"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Bearer", body["tokenType"])
	assert.NotContains(t, rec.Body.String(), "$2a$", "password hash never leaves the server")
	token := body["accessToken"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me := httptest.NewRecorder()
	root.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "admin", decodeBody(t, me)["username"])

	rec = do(t, root, http.MethodGet, "/api/v1/admin/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

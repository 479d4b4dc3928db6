package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cusspwk/cuss/internal/auth"
	"github.com/cusspwk/cuss/internal/middleware"
	"github.com/cusspwk/cuss/internal/model"
	"github.com/cusspwk/cuss/internal/service"
)

// AuthAPI is the auth service as seen by the HTTP layer.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*auth.Token, *model.Admin, error)
	Me(ctx context.Context, adminID string) (*model.Admin, error)
}

// AuthHandler logs admins in.
type AuthHandler struct {
	auth AuthAPI
	log  *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(a AuthAPI, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: a, log: log}
}

// Routes registers the auth endpoints. login wraps the public POST.
func (h *AuthHandler) Routes(public, admin *mux.Router, login func(http.Handler) http.Handler) {
	public.Handle("/auth/login", login(http.HandlerFunc(h.Login))).Methods(http.MethodPost)
	admin.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)
}

type loginResponse struct {
	*auth.Token
	Admin *model.Admin `json:"admin"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tok, admin, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn("admin login failed", zap.String("username", req.Username), zap.String("ip", middleware.ClientIP(r)))
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password.")
			return
		}
		writeServiceError(w, h.log, "Admin", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: tok, Admin: admin})
}

// Me handles GET /api/v1/admin/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token.")
		return
	}
	admin, err := h.auth.Me(r.Context(), claims.AdminID)
	if err != nil {
		writeServiceError(w, h.log, "Admin", err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

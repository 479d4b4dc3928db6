package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cusspwk/cuss/internal/auth"
)

type claimsKey struct{}

// TokenValidator checks an access token.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AdminAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the token's claims in the request context.
func AdminAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token.")
				return
			}

			claims, err := v.Validate(strings.TrimSpace(token))
			if err != nil {
				msg := "Invalid token."
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Token has expired."
				}
				writeError(w, http.StatusUnauthorized, "unauthorized", msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by AdminAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}

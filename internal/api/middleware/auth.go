package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/phim-stream/internal/auth"
	"github.com/dom/phim-stream/internal/service"
)

type contextKey string

const (
	ClaimsKey contextKey = "claims"
)

// Auth rejects requests without a valid bearer token and stores the verified
// claims in the request context.
func Auth(authService *service.AuthService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.InfoContext(r.Context(), "missing authorization header", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				logger.InfoContext(r.Context(), "invalid authorization header format", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			claims, err := authService.Authenticate(strings.TrimSpace(token))
			if err != nil {
				logger.InfoContext(r.Context(), "token validation failed", "path", r.URL.Path, "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Not authenticated"})
}

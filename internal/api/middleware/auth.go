package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/osrsbingo/internal/api/apierr"
	"github.com/mcoot/osrsbingo/internal/services/auth"
)

type contextKey string

const (
	adminContextKey contextKey = "admin"
	tokenContextKey contextKey = "token"
)

// AdminCookie holds the admin token for browser clients
const AdminCookie = "bingo_admin"

// IngestKeyHeader carries the plugin ingest API key
const IngestKeyHeader = "X-API-Key"

// OptionalAdmin marks the request as admin when it carries a valid admin
// token. Requests without one pass through as non-admin; services decide
// whether that is allowed.
func OptionalAdmin(authService auth.ServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if _, err := authService.ValidateToken(token); err == nil {
					ctx := context.WithValue(r.Context(), adminContextKey, true)
					ctx = context.WithValue(ctx, tokenContextKey, token)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests that OptionalAdmin did not mark as admin
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIngestKey checks the ingest API key from the X-API-Key header, the
// "key" query parameter or a Bearer token. Dink cannot set headers, so
// its webhook URL carries the key as a query parameter.
func RequireIngestKey(authService auth.ServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authService.IngestKeyRequired() {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IngestKeyHeader)
			if key == "" {
				key = r.URL.Query().Get("key")
			}
			if key == "" {
				key = bearerToken(r)
			}
			if key == "" || !authService.CheckIngestKey(key) {
				apierr.WriteError(w, apierr.NewInvalidAPIKeyError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the admin token from the request
func extractToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}

	cookie, err := r.Cookie(AdminCookie)
	if err == nil {
		return cookie.Value
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// IsAdmin reports whether the request carries a valid admin token
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminContextKey).(bool)
	return admin
}

// GetToken returns the validated admin token from the request context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

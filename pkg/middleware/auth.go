package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cowriteapp/cowrite/internal/auth"
	"github.com/cowriteapp/cowrite/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey ContextKey = "principal"
)

// TokenVerifier verifies a bearer token and returns the user ID it belongs to
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// PrincipalResolver loads the principal for an authenticated user ID
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID int64) (*auth.Principal, error)
}

// Auth validates the Authorization bearer token and attaches the resolved
// principal to the request context. Requests without a valid token are
// rejected with 401.
func Auth(tokens TokenVerifier, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			userID, err := tokens.Verify(parts[1])
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), userID)
			if err != nil || principal == nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin gates a route subtree to elevated principals
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipal(r.Context())
		if !principal.Elevated() {
			response.Forbidden(w, "Super admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetPrincipal extracts the authenticated principal from the request context.
// Returns nil when the request was not authenticated.
func GetPrincipal(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(PrincipalKey).(*auth.Principal)
	return principal
}

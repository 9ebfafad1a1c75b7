package auth

import (
	"context"
	"net/http"
)

// Middleware authenticates requests with verifier and stores the resulting
// identity in the request context. Requests without a valid bearer token are
// rejected with 401, except for public endpoints.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health checks or other public endpoints
			if isPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// Identity already set by the debug middleware
			if _, ok := IdentityFrom(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			token, err := ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			identity, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// DebugMiddleware allows impersonation via header.
// ONLY use this in development - never in production!
func DebugMiddleware(skipAuth bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipAuth {
				if user := r.Header.Get("X-Debug-Impersonate-User"); user != "" {
					identity := &Identity{ID: user, Email: user + "@debug.local"}
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isPublicEndpoint checks if an endpoint should be accessible without authentication
func isPublicEndpoint(path string) bool {
	switch path {
	case "/health", "/ping":
		return true
	}
	return false
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom extracts the identity stored by Middleware.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*Identity)
	return identity, ok && identity != nil
}

package auth

import (
	"context"
	"net/http"
)

// LocalDevIdentity is the identity used when authentication is skipped.
var LocalDevIdentity = Identity{
	ID:    "local-dev-user",
	Email: "dev@localhost",
}

// LocalDevVerifier accepts any token and returns LocalDevIdentity, so the
// dev experience needs no Firebase setup.
type LocalDevVerifier struct{}

func (LocalDevVerifier) VerifyToken(ctx context.Context, idToken string) (*Identity, error) {
	id := LocalDevIdentity
	return &id, nil
}

// LocalDevMiddleware attaches LocalDevIdentity to requests that carry no
// identity yet. Use it in place of Middleware when running without Firebase.
func LocalDevMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFrom(r.Context()); !ok {
				identity, _ := LocalDevVerifier{}.VerifyToken(r.Context(), "")
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

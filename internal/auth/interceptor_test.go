package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		expectedErr bool
		errContains string
		wantToken   string
	}{
		{
			name:        "empty header",
			authHeader:  "",
			expectedErr: true,
			errContains: "authorization header is required",
		},
		{
			name:        "no bearer prefix",
			authHeader:  "token123",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "wrong prefix",
			authHeader:  "Basic token123",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "bearer only no token",
			authHeader:  "Bearer",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "bearer with empty token",
			authHeader:  "Bearer ",
			expectedErr: true,
			errContains: "must be Bearer token",
		},
		{
			name:        "valid bearer token",
			authHeader:  "Bearer mytoken123",
			expectedErr: false,
			wantToken:   "mytoken123",
		},
		{
			name:        "bearer lowercase",
			authHeader:  "bearer mytoken456",
			expectedErr: false,
			wantToken:   "mytoken456",
		},
		{
			name:        "bearer mixed case",
			authHeader:  "BEARER mytoken789",
			expectedErr: false,
			wantToken:   "mytoken789",
		},
		{
			name:        "token with spaces",
			authHeader:  "Bearer token with spaces",
			expectedErr: false,
			wantToken:   "token with spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractTokenFromHeader(tt.authHeader)

			if tt.expectedErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
		})
	}
}

func TestContextIdentity(t *testing.T) {
	t.Run("WithIdentity adds identity to context", func(t *testing.T) {
		identity := &Identity{ID: "test-uid", Email: "test@example.com"}

		got, ok := IdentityFrom(WithIdentity(context.Background(), identity))
		require.True(t, ok)
		assert.Equal(t, identity, got)
	})

	t.Run("IdentityFrom returns false for empty context", func(t *testing.T) {
		got, ok := IdentityFrom(context.Background())
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("IdentityFrom returns false for nil identity", func(t *testing.T) {
		_, ok := IdentityFrom(WithIdentity(context.Background(), nil))
		assert.False(t, ok)
	})
}

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"health endpoint", "/health", true},
		{"ping endpoint", "/ping", true},
		{"session endpoint", "/v1/session", false},
		{"empty endpoint", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isPublicEndpoint(tt.path))
		})
	}
}

type stubVerifier struct {
	identity *Identity
	err      error
	tokens   []string
}

func (s *stubVerifier) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	s.tokens = append(s.tokens, token)
	return s.identity, s.err
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(identity.ID))
	})
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		header     string
		verifier   *stubVerifier
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			path:       "/v1/session",
			header:     "Bearer good",
			verifier:   &stubVerifier{identity: &Identity{ID: "alice"}},
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "missing header",
			path:       "/v1/session",
			verifier:   &stubVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected token",
			path:       "/v1/session",
			header:     "Bearer bad",
			verifier:   &stubVerifier{err: errors.New("expired")},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "public endpoint skips auth",
			path:       "/health",
			verifier:   &stubVerifier{},
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Middleware(tt.verifier)(echoIdentity()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestDebugMiddlewareImpersonation(t *testing.T) {
	verifier := &stubVerifier{identity: &Identity{ID: "from-token"}}
	handler := DebugMiddleware(true)(Middleware(verifier)(echoIdentity()))

	req := httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	req.Header.Set("X-Debug-Impersonate-User", "bob")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "bob", rec.Body.String())
	assert.Empty(t, verifier.tokens)

	// Impersonation is ignored when auth is enforced.
	strict := DebugMiddleware(false)(Middleware(verifier)(echoIdentity()))
	req = httptest.NewRequest(http.MethodPost, "/v1/session", nil)
	req.Header.Set("X-Debug-Impersonate-User", "bob")
	rec = httptest.NewRecorder()
	strict.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLocalDevVerifier(t *testing.T) {
	identity, err := LocalDevVerifier{}.VerifyToken(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "local-dev-user", identity.ID)
	assert.Equal(t, "dev@localhost", identity.Email)
}

func TestLocalDevMiddleware(t *testing.T) {
	handler := DebugMiddleware(true)(LocalDevMiddleware()(echoIdentity()))

	req := httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local-dev-user", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/v1/state", nil)
	req.Header.Set("X-Debug-Impersonate-User", "carol")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "carol", rec.Body.String())
}

package auth

import (
	"context"
	"errors"
)

var (
	// ErrUnauthenticated is returned when a request carries no identity.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrPermissionDenied is returned when an identity reaches for another
	// user's data.
	ErrPermissionDenied = errors.New("cannot access another user's resources")
)

// RequireAuth extracts the identity from context or returns ErrUnauthenticated
func RequireAuth(ctx context.Context) (*Identity, error) {
	identity, ok := IdentityFrom(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return identity, nil
}

// RequireUserAccess verifies the authenticated user matches the requested user ID
func RequireUserAccess(ctx context.Context, requestedUserID string) (*Identity, error) {
	identity, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if requestedUserID != identity.ID {
		return nil, ErrPermissionDenied
	}

	return identity, nil
}

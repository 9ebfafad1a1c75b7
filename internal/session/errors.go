package session

import "errors"

var (
	// ErrSuperseded is returned by a hydration pass whose identity was
	// replaced before it could load its result.
	ErrSuperseded = errors.New("session: hydration superseded by a newer identity")
	// ErrNoIdentity is returned by Owner while signed out.
	ErrNoIdentity = errors.New("session: no identity")
)

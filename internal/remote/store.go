// Package remote talks to the authoritative per-identity budget document.
package remote

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=remote

// DocumentStore is the minimal document database contract the engine needs.
type DocumentStore interface {
	// Get returns the document data, or ErrNotFound when it does not exist.
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	// Set writes data into the document, creating it if needed. Each
	// top-level field in data replaces the stored one; fields not present
	// in data are left untouched.
	Set(ctx context.Context, collection, id string, data map[string]any) error
}

// ErrNotFound reports a missing document.
var ErrNotFound = errors.New("remote: document not found")

// Error is a failed remote read or write.
type Error struct {
	Op         string // "get" or "set"
	Collection string
	ID         string
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUnavailable reports whether err is a remote failure other than a missing
// document.
func IsUnavailable(err error) bool {
	if err == nil || errors.Is(err, ErrNotFound) {
		return false
	}
	var remoteErr *Error
	return errors.As(err, &remoteErr)
}

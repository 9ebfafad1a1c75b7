// Package backup stores exported budget documents outside the sync path,
// either in a local directory or in a Cloud Storage bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/castlemilk/budgetsync/internal/budget"
)

var (
	// ErrNotFound is returned when a named archive does not exist.
	ErrNotFound = errors.New("backup: archive not found")

	// ErrInvalidName is returned for archive names or keys that could escape
	// their owner's namespace.
	ErrInvalidName = errors.New("backup: invalid archive name")
)

// Sink receives export archives.
type Sink interface {
	Write(ctx context.Context, name string, r io.Reader) error
}

// Source serves previously written archives.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Key is the storage key of the archive name owned by uid. Archives of
// different identities never share a key.
func Key(uid, name string) (string, error) {
	if !validSegment(uid) || !validSegment(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return uid + "/" + name, nil
}

func validSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, `/\`) && !strings.HasPrefix(s, ".")
}

// checkKey validates a key as a slash-separated list of plain segments.
func checkKey(key string) error {
	for _, seg := range strings.Split(key, "/") {
		if !validSegment(seg) {
			return fmt.Errorf("%w: %q", ErrInvalidName, key)
		}
	}
	return nil
}

// Archive encodes doc and writes it to sink as uid's archive under the
// conventional export file name for now. It returns the name written,
// without the identity scope.
func Archive(ctx context.Context, sink Sink, uid string, doc budget.ExportDocument, now time.Time) (string, error) {
	name := budget.ExportFileName(now)
	key, err := Key(uid, name)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}
	if err := sink.Write(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write archive %s: %w", key, err)
	}
	return name, nil
}

// Restore reads uid's archive called name from source as an import document.
func Restore(ctx context.Context, source Source, uid, name string) (map[string]any, error) {
	key, err := Key(uid, name)
	if err != nil {
		return nil, err
	}
	rc, err := source.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return budget.ParseImport(rc)
}

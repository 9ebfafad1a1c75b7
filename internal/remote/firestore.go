package remote

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements DocumentStore using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed document store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
	}
}

// Get retrieves a document from Firestore
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &Error{Op: "get", Collection: collection, ID: id, Cause: err}
	}
	if !doc.Exists() {
		return nil, ErrNotFound
	}
	return doc.Data(), nil
}

// Set writes every top-level field of data into a Firestore document,
// replacing each one wholesale. Fields absent from data are left untouched.
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, data, topLevelMerge(data))
	if err != nil {
		return &Error{Op: "set", Collection: collection, ID: id, Cause: err}
	}
	return nil
}

// topLevelMerge merges on the top-level keys of data only, so nested maps
// such as budgetLimits drop entries the caller no longer holds.
func topLevelMerge(data map[string]any) firestore.SetOption {
	if len(data) == 0 {
		return firestore.MergeAll
	}
	paths := make([]firestore.FieldPath, 0, len(data))
	for k := range data {
		paths = append(paths, firestore.FieldPath{k})
	}
	return firestore.Merge(paths...)
}

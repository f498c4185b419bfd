package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no document exists for the requested id.
var ErrNotFound = errors.New("document not found")

const (
	// CollectionUsers holds user profiles keyed by identity id.
	CollectionUsers = "users"
	// CollectionPolicies holds insurance policy records.
	CollectionPolicies = "policies"
	// CollectionClaims holds insurance claim records.
	CollectionClaims = "claims"
)

// Document is a stored record. Data holds the JSON-compatible field values.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is an equality predicate over a top-level field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Store defines the keyed-collection primitives implemented by storage backends.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	// Insert stores data under id, generating one when id is empty.
	Insert(ctx context.Context, collection, id string, data map[string]any) (string, error)
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Query returns documents matching every filter, oldest first.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}

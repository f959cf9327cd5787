// Package repo is the record collection: a bag of JSON documents shaped like
// domain.Record, with the find/insert/update/delete/sort operations the
// service needs. Implementations exist for Postgres (JSONB) and SQLite.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dom "Vault/internal/domain"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDuplicateID = errors.New("record id already exists")
)

// RecordRepo is the "records" collection.
type RecordRepo interface {
	// Find returns the documents matching f in store-native order.
	Find(ctx context.Context, f Filter) ([]dom.Record, error)
	// FindOne returns ErrNotFound when no document has the id.
	FindOne(ctx context.Context, id string) (dom.Record, error)
	// InsertOne returns ErrDuplicateID when the id is taken.
	InsertOne(ctx context.Context, rec dom.Record) error
	// FindOneAndUpdateName sets name and returns the document after the update.
	FindOneAndUpdateName(ctx context.Context, id, name string) (dom.Record, error)
	DeleteOne(ctx context.Context, id string) error
	// FindSorted orders all documents by the attribute named key, compared as
	// text. Documents without the attribute have no defined position.
	FindSorted(ctx context.Context, key string, desc bool) ([]dom.Record, error)
}

// Filter selects documents. The zero Filter matches everything.
type Filter struct {
	ID           *string
	NameContains *string
}

// ByID matches the document whose id equals id exactly.
func ByID(id string) Filter { return Filter{ID: &id} }

// ByName matches names containing substr, ignoring case.
func ByName(substr string) Filter { return Filter{NameContains: &substr} }

func decodeDoc(raw string) (dom.Record, error) {
	var rec dom.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return dom.Record{}, fmt.Errorf("decode record document: %w", err)
	}
	return rec, nil
}

func encodeDoc(rec dom.Record) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record document: %w", err)
	}
	return string(b), nil
}

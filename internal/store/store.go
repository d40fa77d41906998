// Package store persists named collections of JSON documents.
//
// A Store only moves raw JSON bytes; Load, Save and Initialize add the typed
// document semantics on top so every driver behaves the same way.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/iedc-snmimt/iedc-site/internal/models"
)

// Collection names.
const (
	Messages      = "messages"
	Events        = "events"
	Registrations = "registrations"
)

// ErrNotExist is returned by Read for a collection that was never written.
var ErrNotExist = errors.New("collection does not exist")

// Document is the serialized content of one collection.
type Document struct {
	Collection string
	Data       []byte
}

type Store interface {
	// Read returns the stored content of a collection, or ErrNotExist.
	Read(ctx context.Context, collection string) ([]byte, error)
	// Write replaces every given collection. Readers observe either all of
	// the new documents or none of them.
	Write(ctx context.Context, docs ...Document) error
	// Create stores data only if the collection does not exist yet and
	// reports whether it did so.
	Create(ctx context.Context, collection string, data []byte) (bool, error)
	Close() error
}

// Load decodes a collection. A collection that was never initialized is
// empty. A corrupt collection is also treated as empty, with a warning.
func Load[T any](ctx context.Context, s Store, collection string) ([]T, error) {
	data, err := s.Read(ctx, collection)
	if errors.Is(err, ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, &models.StorageError{Op: "load", Collection: collection, Err: err}
	}

	var docs []T
	if err := json.Unmarshal(data, &docs); err != nil {
		log.Printf("WARNING: collection %q is unreadable, treating it as empty: %v", collection, err)
		return []T{}, nil
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

// Change is the new content of one collection passed to Save.
type Change struct {
	Collection string
	Docs       any
}

// Save encodes and writes all changes as one unit.
func Save(ctx context.Context, s Store, changes ...Change) error {
	docs := make([]Document, 0, len(changes))
	names := make([]string, 0, len(changes))
	for _, c := range changes {
		data, err := json.MarshalIndent(c.Docs, "", "  ")
		if err != nil {
			return &models.StorageError{Op: "save", Collection: c.Collection, Err: err}
		}
		docs = append(docs, Document{Collection: c.Collection, Data: data})
		names = append(names, c.Collection)
	}

	if err := s.Write(ctx, docs...); err != nil {
		return &models.StorageError{Op: "save", Collection: strings.Join(names, "+"), Err: err}
	}
	return nil
}

// Initialize creates a collection with seed content unless it already exists.
func Initialize[T any](ctx context.Context, s Store, collection string, seed []T) error {
	if seed == nil {
		seed = []T{}
	}
	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return &models.StorageError{Op: "initialize", Collection: collection, Err: err}
	}

	created, err := s.Create(ctx, collection, data)
	if err != nil {
		return &models.StorageError{Op: "initialize", Collection: collection, Err: err}
	}
	if created {
		log.Printf("Initialized collection %q with %d document(s)", collection, len(seed))
	}
	return nil
}

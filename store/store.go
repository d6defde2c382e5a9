// Package store provides access to the note document store. The worker does
// not own note documents; it updates their indexing status after embedding
// and reads their content back during retrieval.
package store

import (
	"context"

	"github.com/notetree/worker/internal/profile"
)

// StatusReady marks a note as fully indexed and searchable.
const StatusReady = "READY"

// Note represents a note document.
type Note struct {
	ID          int32
	UID         string // external identifier, used in search result references
	VectorID    int64  // key into the vector index
	Content     string
	Status      string
	Category    string
	VectorReady bool
}

// UpdateNoteByVectorID holds the fields to set on the note keyed by VectorID.
// Nil fields are left untouched.
type UpdateNoteByVectorID struct {
	VectorID    int64
	Status      *string
	Category    *string
	VectorReady *bool
}

// Store provides document store access to the job handlers.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// UpdateNoteByVectorID applies the update to the note keyed by vector id.
func (s *Store) UpdateNoteByVectorID(ctx context.Context, update *UpdateNoteByVectorID) error {
	return s.driver.UpdateNoteByVectorID(ctx, update)
}

// FindNotesByVectorIDs returns the notes whose vector ids are in the given
// set. Missing ids are silently absent from the result.
func (s *Store) FindNotesByVectorIDs(ctx context.Context, vectorIDs []int64) ([]*Note, error) {
	return s.driver.FindNotesByVectorIDs(ctx, vectorIDs)
}

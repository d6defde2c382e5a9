package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Note model related methods.
	UpdateNoteByVectorID(ctx context.Context, update *UpdateNoteByVectorID) error
	FindNotesByVectorIDs(ctx context.Context, vectorIDs []int64) ([]*Note, error)
}

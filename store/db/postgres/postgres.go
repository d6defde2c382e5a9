// Package postgres implements the document store driver over PostgreSQL,
// the production backend shared with the API layer.
package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/notetree/worker/internal/profile"
	"github.com/notetree/worker/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the PostgreSQL connection at profile.DSN. The note schema is
// owned by the API layer and is expected to exist.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// The worker holds at most a handful of concurrent queries.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// placeholder returns the numbered placeholder for argument n (1-based).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n comma-separated numbered placeholders starting at
// offset+1.
func placeholders(offset, n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = placeholder(offset + i + 1)
	}
	return strings.Join(list, ", ")
}

// Package sqlite implements the document store driver over SQLite. It is the
// development and single-node default; production deployments use postgres.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/notetree/worker/internal/profile"
	"github.com/notetree/worker/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database at profile.DSN and ensures the note table
// exists.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// WAL allows the API layer and the worker to share the file.
	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// SQLite allows a single writer; more connections just contend.
	db.SetMaxOpenConns(1)

	driver := &DB{db: db, profile: profile}
	if err := driver.migrate(context.Background()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate note schema")
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// migrate creates the note table when it is missing. In the full deployment
// the API layer owns this schema; creating it here keeps single-binary dev
// setups working.
func (d *DB) migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS note (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid TEXT NOT NULL UNIQUE,
			vector_id INTEGER NOT NULL UNIQUE,
			content TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			category TEXT NOT NULL DEFAULT '',
			vector_ready INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

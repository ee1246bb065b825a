// Package store implements the reminder store: one uniform CRUD+subscribe
// contract over two interchangeable backends, a remote synchronized
// collection and a local per-device badger database, plus the manager that
// selects between them.
package store

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	badger "github.com/dgraph-io/badger/v4"
)

// AppName is the application name used for data directories.
const AppName = "meditrack"

// DB wraps a badger database connection.
type DB struct {
	db *badger.DB
}

// DBOptions configures the database connection.
type DBOptions struct {
	// Path is the database directory path. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
}

// DefaultPath returns the default database path following the XDG spec.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, "db")
}

// OpenDB opens or creates a database at the given path.
func OpenDB(opts DBOptions) (*DB, error) {
	var badgerOpts badger.Options

	if opts.InMemory || opts.Path == "" || opts.Path == ":memory:" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}

	// Reduce logging noise
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Badger returns the underlying badger database for advanced operations.
func (d *DB) Badger() *badger.DB {
	return d.db
}

// Package typeindex records which native types each generated module
// registers, so that later compilation units can accept them as bases
// and parameters.
package typeindex

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/malkia/clif/registry"
)

var log = commonlog.GetLogger("clif.typeindex")

// ErrTypeNotFound indicates the requested native type is not indexed.
var ErrTypeNotFound = errors.New("type not found")

// Type is one indexed row.
type Type struct {
	Native    string
	Module    string
	Path      string
	Kind      string
	Namespace string
}

// Index is a SQLite-backed store of registered types.
type Index struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the index at path. ":memory:" gives a
// private in-memory index.
func Open(path string) (*Index, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening type index: %w", err)
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS types (
		native TEXT NOT NULL,
		module TEXT NOT NULL,
		path TEXT NOT NULL,
		kind TEXT NOT NULL,
		namespace TEXT NOT NULL,
		PRIMARY KEY (module, native)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Index{db: db, path: path}, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	if x.db != nil {
		return x.db.Close()
	}
	return nil
}

// Record replaces the rows of module with entries.
func (x *Index) Record(module string, entries []registry.Entry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM types WHERE module = ?", module); err != nil {
		return fmt.Errorf("clearing %s: %w", module, err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO types (native, module, path, kind, namespace)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.Exec(e.Native, module, e.Path, e.Kind.String(), e.Namespace); err != nil {
			return fmt.Errorf("recording %s: %w", e.Native, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", module, err)
	}
	log.Debugf("recorded %d types for %s in %s", len(entries), module, x.path)
	return nil
}

// KnownTypes returns the sorted, distinct native names registered by
// every module other than exclude.
func (x *Index) KnownTypes(exclude string) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	rows, err := x.db.Query(
		"SELECT DISTINCT native FROM types WHERE module != ? ORDER BY native", exclude)
	if err != nil {
		return nil, fmt.Errorf("querying known types: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var native string
		if err := rows.Scan(&native); err != nil {
			return nil, fmt.Errorf("scanning known type: %w", err)
		}
		out = append(out, native)
	}
	return out, rows.Err()
}

// Lookup returns the first module (by name) registering native.
func (x *Index) Lookup(native string) (Type, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	t := Type{Native: native}
	err := x.db.QueryRow(
		"SELECT module, path, kind, namespace FROM types WHERE native = ? ORDER BY module LIMIT 1",
		native).Scan(&t.Module, &t.Path, &t.Kind, &t.Namespace)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Type{}, ErrTypeNotFound
		}
		return Type{}, fmt.Errorf("querying %s: %w", native, err)
	}
	return t, nil
}

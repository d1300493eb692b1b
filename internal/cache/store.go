package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/funvibe/funvar/internal/specfile"
	"github.com/funvibe/funvar/pkg/typesystem"
)

// Store is the persistent tier: bindings keyed by (definition id, argument
// key), substitutions serialized in the specfile YAML form. Writes use
// INSERT OR IGNORE, so the first writer wins and concurrent writers of the
// same call are harmless.
type Store struct {
	db *sql.DB
}

const bindingsSchema = `
CREATE TABLE IF NOT EXISTS bindings (
	definition_id TEXT NOT NULL,
	arg_key       TEXT NOT NULL,
	subst         TEXT NOT NULL,
	PRIMARY KEY (definition_id, arg_key)
)`

// OpenStore opens the binding store at path, creating it if needed.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening binding store %s: %w", path, err)
	}
	if _, err := db.Exec(bindingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing binding store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Get looks up the persisted substitution for one call.
func (s *Store) Get(ctx context.Context, defID, argKey string) (*typesystem.Subst, bool, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT subst FROM bindings WHERE definition_id = ? AND arg_key = ?`,
		defID, argKey).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading binding store: %w", err)
	}
	sub, err := specfile.DecodeSubst(doc)
	if err != nil {
		return nil, false, fmt.Errorf("decoding stored binding: %w", err)
	}
	return sub, true, nil
}

// Put persists one binding. An existing row for the same call is kept
// unchanged.
func (s *Store) Put(ctx context.Context, defID, argKey string, sub *typesystem.Subst) error {
	doc, err := specfile.EncodeSubst(sub)
	if err != nil {
		return fmt.Errorf("encoding binding: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO bindings (definition_id, arg_key, subst) VALUES (?, ?, ?)`,
		defID, argKey, doc); err != nil {
		return fmt.Errorf("writing binding store: %w", err)
	}
	return nil
}

// Count reports the number of persisted bindings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bindings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("reading binding store: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"neom/internal/repository"
	"neom/pkg/ddd"
	"neom/pkg/platform/sentinel"
	"neom/pkg/platform/tx"
)

// SQLiteStore is the single-file variant of PostgresStore, for local runs
// without a database server.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (creating if needed) the database file at path and
// migrates table.
func OpenSQLite(ctx context.Context, path, table string) (*SQLiteStore, error) {
	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := NewSQLite(db, table)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database. SQLite accepts the same double-quoted
// identifiers as PostgreSQL.
func NewSQLite(db *sql.DB, table string) *SQLiteStore {
	return &SQLiteStore{db: db, table: pq.QuoteIdentifier(table)}
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Migrate creates the entity table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			schema_name  TEXT     NOT NULL,
			identity_key TEXT     NOT NULL,
			document     TEXT     NOT NULL,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (schema_name, identity_key)
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate entity table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) conn(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *SQLiteStore) Save(ctx context.Context, e *ddd.Instance) error {
	id, err := e.Identity()
	if err != nil {
		return err
	}
	key, err := repository.IdentityKey(id)
	if err != nil {
		return err
	}
	doc, err := repository.Encode(e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO ` + s.table + ` (schema_name, identity_key, document, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (schema_name, identity_key) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`
	if _, err := s.conn(ctx).ExecContext(ctx, query, e.Schema().Name(), key, string(doc)); err != nil {
		return fmt.Errorf("save entity: %w", wrapSQLiteError(err))
	}
	return nil
}

func (s *SQLiteStore) Find(ctx context.Context, schema *ddd.Schema, identity any) (*ddd.Instance, error) {
	key, err := repository.IdentityKey(identity)
	if err != nil {
		return nil, err
	}

	var doc string
	query := `SELECT document FROM ` + s.table + ` WHERE schema_name = ? AND identity_key = ?`
	err = s.conn(ctx).QueryRowContext(ctx, query, schema.Name(), key).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find entity: %w", wrapSQLiteError(err))
	}
	return repository.Decode(schema, []byte(doc))
}

func (s *SQLiteStore) Delete(ctx context.Context, schema *ddd.Schema, identity any) error {
	key, err := repository.IdentityKey(identity)
	if err != nil {
		return err
	}

	query := `DELETE FROM ` + s.table + ` WHERE schema_name = ? AND identity_key = ?`
	res, err := s.conn(ctx).ExecContext(ctx, query, schema.Name(), key)
	if err != nil {
		return fmt.Errorf("delete entity: %w", wrapSQLiteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context, schema *ddd.Schema) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + s.table + ` WHERE schema_name = ?`
	if err := s.conn(ctx).QueryRowContext(ctx, query, schema.Name()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", wrapSQLiteError(err))
	}
	return n, nil
}

// wrapSQLiteError maps a missing table to sentinel.ErrUnavailable.
func wrapSQLiteError(err error) error {
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, err)
	}
	return err
}

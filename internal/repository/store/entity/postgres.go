package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"neom/internal/repository"
	"neom/pkg/ddd"
	"neom/pkg/platform/sentinel"
	"neom/pkg/platform/tx"
)

const undefinedTable = "42P01"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists entities as JSONB documents keyed by schema name
// and identity. Operations join the transaction carried by ctx, if any.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgres constructs a PostgreSQL-backed entity store writing to table.
func NewPostgres(db *sql.DB, table string) *PostgresStore {
	return &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
}

// Migrate creates the entity table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			schema_name  TEXT        NOT NULL,
			identity_key TEXT        NOT NULL,
			document     JSONB       NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (schema_name, identity_key)
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate entity table: %w", err)
	}
	return nil
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, e *ddd.Instance) error {
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
		VALUES ($1, $2, $3, now())
		ON CONFLICT (schema_name, identity_key) DO UPDATE SET
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.conn(ctx).ExecContext(ctx, query, e.Schema().Name(), key, doc); err != nil {
		return fmt.Errorf("save entity: %w", wrapPgError(err))
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, schema *ddd.Schema, identity any) (*ddd.Instance, error) {
	key, err := repository.IdentityKey(identity)
	if err != nil {
		return nil, err
	}

	var doc []byte
	query := `SELECT document FROM ` + s.table + ` WHERE schema_name = $1 AND identity_key = $2`
	err = s.conn(ctx).QueryRowContext(ctx, query, schema.Name(), key).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find entity: %w", wrapPgError(err))
	}
	return repository.Decode(schema, doc)
}

func (s *PostgresStore) Delete(ctx context.Context, schema *ddd.Schema, identity any) error {
	key, err := repository.IdentityKey(identity)
	if err != nil {
		return err
	}

	query := `DELETE FROM ` + s.table + ` WHERE schema_name = $1 AND identity_key = $2`
	res, err := s.conn(ctx).ExecContext(ctx, query, schema.Name(), key)
	if err != nil {
		return fmt.Errorf("delete entity: %w", wrapPgError(err))
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

func (s *PostgresStore) Count(ctx context.Context, schema *ddd.Schema) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM ` + s.table + ` WHERE schema_name = $1`
	if err := s.conn(ctx).QueryRowContext(ctx, query, schema.Name()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", wrapPgError(err))
	}
	return n, nil
}

// wrapPgError maps a missing table to sentinel.ErrUnavailable.
func wrapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pgErr.Message)
	}
	return err
}

package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over a single documents table. No
// transactions are used: the conditional write is one version-guarded
// UPDATE (or insert-if-absent), which is all the CAS contract needs.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed document store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Init creates the documents table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			key     TEXT PRIMARY KEY,
			body    JSONB NOT NULL,
			version BIGINT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("%w: init schema: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, Version, error) {
	var body []byte
	var version int64

	err := s.pool.QueryRow(ctx,
		`SELECT body, version FROM documents WHERE key = $1`, key).
		Scan(&body, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NoVersion, nil
	}
	if err != nil {
		return nil, NoVersion, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return body, Version(strconv.FormatInt(version, 10)), nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, body []byte, expected *Version) error {
	if expected == nil {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO documents (key, body, version) VALUES ($1, $2, 1)
			ON CONFLICT (key) DO UPDATE
			SET body = EXCLUDED.body, version = documents.version + 1`,
			key, body)
		if err != nil {
			return fmt.Errorf("%w: put %s: %v", ErrUnavailable, key, err)
		}
		return nil
	}

	if *expected == NoVersion {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO documents (key, body, version) VALUES ($1, $2, 1)
			ON CONFLICT (key) DO NOTHING`,
			key, body)
		if err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrUnavailable, key, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	want, err := strconv.ParseInt(string(*expected), 10, 64)
	if err != nil {
		return ErrVersionConflict
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET body = $2, version = version + 1
		WHERE key = $1 AND version = $3`,
		key, body, want)
	if err != nil {
		return fmt.Errorf("%w: cas %s: %v", ErrUnavailable, key, err)
	}
	// Zero rows means either a stale token or a vanished key; both are
	// conflicts to the caller.
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

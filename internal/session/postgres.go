package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore backs sessions with PostgreSQL, for deployments that run more
// than one dashboard instance against a shared store.
type PostgresStore struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id                    VARCHAR(26) PRIMARY KEY,
	user_id               TEXT        NOT NULL,
	user_type             TEXT        NOT NULL,
	force_password_change BOOLEAN     NOT NULL DEFAULT FALSE,
	token                 BYTEA       NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL,
	expires_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at);
`

// NewPostgresStore connects to PostgreSQL and ensures the sessions table exists
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Save inserts or replaces a record
func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	query := `
	INSERT INTO sessions (id, user_id, user_type, force_password_change, token, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		user_type = EXCLUDED.user_type,
		force_password_change = EXCLUDED.force_password_change,
		token = EXCLUDED.token,
		expires_at = EXCLUDED.expires_at`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.UserType, rec.ForcePasswordChange,
		rec.Token, rec.CreatedAt, rec.ExpiresAt)
	return err
}

// Get returns the record with the given ID, or ErrNotFound
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	query := `
	SELECT id, user_id, user_type, force_password_change, token, created_at, expires_at
	FROM sessions WHERE id = $1`

	rec := &Record{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.UserID, &rec.UserType, &rec.ForcePasswordChange,
		&rec.Token, &rec.CreatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return rec, nil
}

// Delete removes a record; deleting a missing record is a no-op
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// DeleteExpired removes every record expired at or before now
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the underlying database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

package token

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campusport/portalgate/internal/identity"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists the session in a sessions table, one row per
// profile holding both storage keys so they are written and removed
// together.
type PostgresStore struct {
	db      *sqlx.DB
	profile string
}

// sessionRow mirrors the sessions table
type sessionRow struct {
	Profile   string `db:"profile"`
	AuthToken string `db:"auth_token"`
	UserData  string `db:"user_data"`
}

// NewPostgresStore creates a Postgres-backed session store for the given
// profile, creating the sessions table if it does not exist
func NewPostgresStore(ctx context.Context, db *sqlx.DB, profile string) (*PostgresStore, error) {
	schema := `CREATE TABLE IF NOT EXISTS sessions (
		profile    TEXT PRIMARY KEY,
		auth_token TEXT NOT NULL,
		user_data  TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure sessions table: %w", err)
	}
	return &PostgresStore{db: db, profile: profile}, nil
}

// Save upserts the session row, overwriting any prior session
func (s *PostgresStore) Save(ctx context.Context, credential string, ident identity.Identity) error {
	data, err := ident.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize identity: %w", err)
	}

	query := `INSERT INTO sessions (profile, auth_token, user_data, updated_at)
			  VALUES ($1, $2, $3, now())
			  ON CONFLICT (profile)
			  DO UPDATE SET auth_token = $2, user_data = $3, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, s.profile, credential, string(data)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Load returns the persisted session. A missing row, a query failure, or
// corrupt identity data all resolve to ("", nil).
func (s *PostgresStore) Load(ctx context.Context) (string, *identity.Identity) {
	var row sessionRow
	query := `SELECT profile, auth_token, user_data FROM sessions WHERE profile = $1`

	err := s.db.GetContext(ctx, &row, query, s.profile)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", nil
	}
	return decodeUserData(row.AuthToken, []byte(row.UserData))
}

// Clear deletes the session row. Idempotent.
func (s *PostgresStore) Clear(ctx context.Context) error {
	query := `DELETE FROM sessions WHERE profile = $1`
	if _, err := s.db.ExecContext(ctx, query, s.profile); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

package credentials

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultPostgresKey is the row id used when no profile key is given.
const DefaultPostgresKey = "current"

var _ Repo = (*PostgresRepo)(nil)

// PostgresRepo keeps the pair in one row of session_credentials. Each save is
// a single upsert, so both members change together.
type PostgresRepo struct {
	db  *sql.DB
	key string
}

func NewPostgresRepo(db *sql.DB, key string) (*PostgresRepo, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultPostgresKey
	}
	r := &PostgresRepo{db: db, key: key}
	if err := r.ensureSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresRepo) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS session_credentials (
	id TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := r.db.Exec(q); err != nil {
		return fmt.Errorf("ensure session_credentials schema: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Save(pair Pair) error {
	if err := validate(pair); err != nil {
		return err
	}

	const q = `
INSERT INTO session_credentials (id, access_token, refresh_token, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE
SET access_token = EXCLUDED.access_token,
	refresh_token = EXCLUDED.refresh_token,
	updated_at = NOW()`
	if _, err := r.db.Exec(q, r.key, pair.Access, pair.Refresh); err != nil {
		return fmt.Errorf("upsert session credentials: %w", err)
	}
	log.Debug().Str("store", "postgres").Str("key", r.key).Msg("credentials saved")
	return nil
}

func (r *PostgresRepo) Load() (Pair, error) {
	var pair Pair
	const q = `SELECT access_token, refresh_token FROM session_credentials WHERE id = $1`
	if err := r.db.QueryRow(q, r.key).Scan(&pair.Access, &pair.Refresh); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Pair{}, ErrNoCredential
		}
		return Pair{}, fmt.Errorf("query session credentials: %w", err)
	}
	if pair.IsZero() {
		return Pair{}, ErrNoCredential
	}
	return pair, nil
}

func (r *PostgresRepo) Clear() error {
	const q = `DELETE FROM session_credentials WHERE id = $1`
	if _, err := r.db.Exec(q, r.key); err != nil {
		return fmt.Errorf("delete session credentials: %w", err)
	}
	log.Debug().Str("store", "postgres").Str("key", r.key).Msg("credentials cleared")
	return nil
}

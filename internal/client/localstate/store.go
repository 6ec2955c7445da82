// Package localstate is the client's persisted key/value store, the analog
// of browser local storage: opaque keys, fully cleared on sign-out or on a
// detected auth error, never partially.
package localstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"

	"github.com/artstore/artstore/internal/client/localstate/migrations"
	"github.com/artstore/artstore/internal/client/models"
	"github.com/artstore/artstore/internal/dbx"
	"github.com/artstore/artstore/internal/filex"
)

// KeySession holds the persisted session bundle.
const KeySession = "session"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local state database at dsn and runs
// migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open database. Used by tests.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get local_state[%s]: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set local_state[%s]: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM local_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete local_state[%s]: %w", key, err)
	}
	return nil
}

// Clear wipes the entire store in one transaction. Sign-out and auth-error
// handling rely on this being all-or-nothing.
func (s *Store) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM local_state`)
		if err != nil {
			return fmt.Errorf("failed to clear local state: %w", err)
		}
		return nil
	})
}

// LoadSession returns the persisted session, or nil when none is stored.
func (s *Store) LoadSession(ctx context.Context) (*models.Session, error) {
	data, err := s.Get(ctx, KeySession)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode persisted session: %w", err)
	}
	return &session, nil
}

// SaveSession persists the session bundle; a nil session clears it.
func (s *Store) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return s.ClearSession(ctx)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.Set(ctx, KeySession, data)
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, KeySession)
}

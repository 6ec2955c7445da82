// Package users provides a PostgreSQL-backed repository for auth identities.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/artstore/artstore/internal/common"
	"github.com/artstore/artstore/internal/dbx"
	"github.com/artstore/artstore/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.AuthUser) (*models.AuthUser, error) {

	// The id is minted here rather than by the column default so that the
	// profile row created in the same transaction can reference it.
	user.ID = uuid.NewString()

	query :=
		`INSERT INTO auth_users (id, email, password_hash, email_confirmed, metadata)
         VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.EmailConfirmed, user.Metadata)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.AuthUser, error) {
	query :=
		`SELECT id, email, password_hash, email_confirmed, metadata FROM auth_users
		 WHERE email = $1
		 `

	user := &models.AuthUser{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.EmailConfirmed, &user.Metadata)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AuthUser, error) {
	query :=
		`SELECT id, email, password_hash, email_confirmed, metadata FROM auth_users
		 WHERE id = $1
		 `

	user := &models.AuthUser{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.EmailConfirmed, &user.Metadata)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) ConfirmEmail(ctx context.Context, id string) error {
	query :=
		`UPDATE auth_users SET email_confirmed = TRUE
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// isUniqueViolation matches the SQLSTATE 23505 text the pgx stdlib driver
// surfaces through database/sql.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key")
}

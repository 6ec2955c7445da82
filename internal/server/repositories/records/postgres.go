// Package records provides PostgreSQL-backed row access to the profile
// tables the REST surface exposes. Table and column names never come from
// the request verbatim: both are checked against a fixed allowlist before
// they reach a query string.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/artstore/artstore/internal/common"
	"github.com/artstore/artstore/internal/dbx"
)

// allowedColumns lists, per exposed table, the columns a client may read or
// write.
var allowedColumns = map[string]map[string]bool{
	"profiles": {
		"id": true, "username": true, "full_name": true, "avatar_url": true,
		"user_type": true, "bio": true, "website": true, "is_artist": true,
		"is_verified": true,
	},
	"seller_profiles": {
		"id": true, "bio": true, "portfolio_url": true, "social_links": true,
		"total_sales": true,
	},
	"buyer_profiles": {
		"id": true, "favorites": true, "purchase_history": true,
		"saved_items": true,
	},
}

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// SelectByID returns the row with the given id as a JSON-shaped map, or
// common.ErrorNotFound when absent.
func (r *PostgresRepository) SelectByID(ctx context.Context, table, id string) (map[string]any, error) {
	if _, ok := allowedColumns[table]; !ok {
		return nil, ErrUnknownTable
	}

	query := fmt.Sprintf(`SELECT row_to_json(t) FROM (SELECT * FROM %s WHERE id = $1) t`, table)

	var raw []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	record := map[string]any{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return record, nil
}

// Insert creates a row from the recognized columns of record. Unknown keys
// are dropped silently, matching the permissive REST surface.
func (r *PostgresRepository) Insert(ctx context.Context, table string, record map[string]any) error {
	columns, args, err := filterColumns(table, record)
	if err != nil {
		return err
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "duplicate key") {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update patches the recognized columns of the row with the given id.
func (r *PostgresRepository) Update(ctx context.Context, table, id string, record map[string]any) error {
	delete(record, "id")
	columns, args, err := filterColumns(table, record)
	if err != nil {
		return err
	}

	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", column, i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`,
		table, strings.Join(assignments, ", "), len(columns)+1)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// filterColumns keeps the allowlisted keys of record in sorted order and
// converts composite values to JSONB-ready bytes.
func filterColumns(table string, record map[string]any) ([]string, []any, error) {
	allowed, ok := allowedColumns[table]
	if !ok {
		return nil, nil, ErrUnknownTable
	}

	columns := make([]string, 0, len(record))
	for key := range record {
		if allowed[key] {
			columns = append(columns, key)
		}
	}
	if len(columns) == 0 {
		return nil, nil, ErrNoColumns
	}
	sort.Strings(columns)

	args := make([]any, len(columns))
	for i, column := range columns {
		value := record[column]
		switch value.(type) {
		case map[string]any, []any:
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, nil, fmt.Errorf("encode %s: %w", column, err)
			}
			args[i] = raw
		default:
			args[i] = value
		}
	}
	return columns, args, nil
}

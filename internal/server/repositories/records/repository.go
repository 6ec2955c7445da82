package records

import (
	"context"
	"errors"
)

// ErrUnknownTable is returned for a table outside the exposed allowlist.
var ErrUnknownTable = errors.New("unknown table")

// ErrNoColumns is returned when a write carries no recognized columns.
var ErrNoColumns = errors.New("no recognized columns")

// Repository exposes row-level access to the allowlisted profile tables. The
// record values are JSON-shaped: maps and slices are stored as JSONB.
type Repository interface {
	SelectByID(ctx context.Context, table, id string) (map[string]any, error)
	Insert(ctx context.Context, table string, record map[string]any) error
	Update(ctx context.Context, table, id string, record map[string]any) error
}

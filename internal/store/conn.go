package store

import (
	"context"
	"database/sql"
)

// Conn is the relational capability the store runs statements against.
// *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

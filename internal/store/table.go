package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/lineage/internal/model"
)

// Row is one stored record.
type Row struct {
	Handle   string
	HumanID  string
	OrderKey []byte
	Payload  []byte

	// Extra holds the kind's additional indexed columns in declaration
	// order. Only Person has any.
	Extra []any
}

// Table binds one record kind to its SQL table. Every call goes to the
// database; nothing is cached.
type Table struct {
	conn Conn
	desc *descriptor
}

func newTable(conn Conn, d *descriptor) *Table {
	return &Table{conn: conn, desc: d}
}

// Kind returns the record kind stored in the table.
func (t *Table) Kind() model.Kind {
	return t.desc.kind
}

// Get returns the payload stored under handle.
func (t *Table) Get(ctx context.Context, handle string) ([]byte, bool, error) {
	var payload []byte
	err := t.conn.QueryRowContext(ctx, t.desc.selectByHandle, handle).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError("get "+t.desc.table, handle, err)
	}
	return payload, true, nil
}

// GetByHumanID returns the handle and payload of the record with human ID
// id.
func (t *Table) GetByHumanID(ctx context.Context, id string) (string, []byte, bool, error) {
	var (
		handle  string
		payload []byte
	)
	err := t.conn.QueryRowContext(ctx, t.desc.selectByHumanID, id).Scan(&handle, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, storageError("get "+t.desc.table, id, err)
	}
	return handle, payload, true, nil
}

// Contains reports whether a record with handle exists.
func (t *Table) Contains(ctx context.Context, handle string) (bool, error) {
	return t.exists(ctx, "handle", handle)
}

// ContainsHumanID reports whether a record with human ID id exists.
func (t *Table) ContainsHumanID(ctx context.Context, id string) (bool, error) {
	return t.exists(ctx, "human_id", id)
}

func (t *Table) exists(ctx context.Context, column, key string) (bool, error) {
	var one int
	err := t.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ?", t.desc.table, column), key,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("contains "+t.desc.table, key, err)
	}
	return true, nil
}

func (t *Table) args(row Row) ([]any, error) {
	if len(row.Extra) != len(t.desc.extraColumns) {
		return nil, &Error{
			Code: CodeInvalidRecord,
			Op:   "write " + t.desc.table,
			Key:  row.Handle,
			Err:  fmt.Errorf("want %d extra columns, got %d", len(t.desc.extraColumns), len(row.Extra)),
		}
	}
	orderKey := row.OrderKey
	if orderKey == nil {
		orderKey = []byte{}
	}
	args := []any{sql.NullString{String: row.HumanID, Valid: row.HumanID != ""}, orderKey}
	args = append(args, row.Extra...)
	return append(args, row.Payload), nil
}

// Insert adds a new row.
func (t *Table) Insert(ctx context.Context, row Row) error {
	args, err := t.args(row)
	if err != nil {
		return err
	}
	args = append([]any{row.Handle}, args...)
	if _, err := t.conn.ExecContext(ctx, t.desc.insert, args...); err != nil {
		return storageError("insert "+t.desc.table, row.Handle, err)
	}
	return nil
}

// Update replaces the row with the same handle.
func (t *Table) Update(ctx context.Context, row Row) error {
	args, err := t.args(row)
	if err != nil {
		return err
	}
	args = append(args, row.Handle)
	if _, err := t.conn.ExecContext(ctx, t.desc.update, args...); err != nil {
		return storageError("update "+t.desc.table, row.Handle, err)
	}
	return nil
}

// Delete removes the row with handle. Deleting an absent row is not an
// error.
func (t *Table) Delete(ctx context.Context, handle string) error {
	if _, err := t.conn.ExecContext(ctx, t.desc.remove, handle); err != nil {
		return storageError("delete "+t.desc.table, handle, err)
	}
	return nil
}

// SetOrderKey rewrites only the order key of a row.
func (t *Table) SetOrderKey(ctx context.Context, handle string, key []byte) error {
	if key == nil {
		key = []byte{}
	}
	_, err := t.conn.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET order_by = ? WHERE handle = ?", t.desc.table), key, handle)
	if err != nil {
		return storageError("update "+t.desc.table, handle, err)
	}
	return nil
}

// Count returns the number of rows.
func (t *Table) Count(ctx context.Context) (int, error) {
	var n int
	err := t.conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.desc.table)).Scan(&n)
	if err != nil {
		return 0, storageError("count "+t.desc.table, "", err)
	}
	return n, nil
}

// Keys returns every handle, in order-key order when sorted is set and in
// handle order otherwise.
func (t *Table) Keys(ctx context.Context, sorted bool) ([]string, error) {
	order := "handle"
	if sorted {
		order = "order_by, handle"
	}
	return t.list(ctx, fmt.Sprintf("SELECT handle FROM %s ORDER BY %s", t.desc.table, order))
}

// HumanIDs returns every assigned human ID in byte order.
func (t *Table) HumanIDs(ctx context.Context) ([]string, error) {
	return t.list(ctx, fmt.Sprintf(
		"SELECT human_id FROM %s WHERE human_id IS NOT NULL ORDER BY human_id", t.desc.table))
}

func (t *Table) list(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := t.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list "+t.desc.table, "", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, storageError("list "+t.desc.table, "", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list "+t.desc.table, "", err)
	}
	return out, nil
}

// Cursor returns a cursor over the table. See Cursor for ordering.
func (t *Table) Cursor(sorted bool) *Cursor {
	return newCursor(t, sorted)
}

// Scan calls fn for every row until fn returns an error.
func (t *Table) Scan(ctx context.Context, sorted bool, fn func(handle string, payload []byte) error) error {
	c := t.Cursor(sorted)
	for c.Next(ctx) {
		if err := fn(c.Handle(), c.Payload()); err != nil {
			return err
		}
	}
	return c.Err()
}

package store

import (
	"bytes"
	"context"
	"fmt"
)

// cursorPageSize is the number of rows a cursor fetches per query.
const cursorPageSize = 256

type cursorRow struct {
	handle   string
	orderKey []byte
	payload  []byte
}

// Cursor iterates over a table's rows in handle order, or in (order key,
// handle) order when sorted.
//
// Rows are fetched a page at a time and no statement stays open between
// calls to Next, so the caller may write to the store while iterating. Rows
// written behind the cursor position are not revisited.
type Cursor struct {
	table  *Table
	sorted bool

	page []cursorRow
	pos  int
	done bool
	err  error

	lastHandle string
	lastKey    []byte
	started    bool
	current    cursorRow
}

func newCursor(t *Table, sorted bool) *Cursor {
	return &Cursor{table: t, sorted: sorted, pos: -1}
}

// Next advances to the next row. It returns false at the end or on error.
func (c *Cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	c.pos++
	if c.pos >= len(c.page) {
		if c.done {
			return false
		}
		if err := c.fetch(ctx); err != nil {
			c.err = err
			return false
		}
		if len(c.page) == 0 {
			return false
		}
	}
	c.current = c.page[c.pos]
	c.lastHandle = c.current.handle
	c.lastKey = c.current.orderKey
	c.started = true
	return true
}

func (c *Cursor) fetch(ctx context.Context) error {
	d := c.table.desc
	var (
		query string
		args  []any
	)
	switch {
	case c.sorted && c.started:
		query = fmt.Sprintf(`SELECT handle, order_by, payload FROM %s
			WHERE order_by > ? OR (order_by = ? AND handle > ?)
			ORDER BY order_by, handle LIMIT ?`, d.table)
		args = []any{c.lastKey, c.lastKey, c.lastHandle, cursorPageSize}
	case c.sorted:
		query = fmt.Sprintf(`SELECT handle, order_by, payload FROM %s
			ORDER BY order_by, handle LIMIT ?`, d.table)
		args = []any{cursorPageSize}
	case c.started:
		query = fmt.Sprintf(`SELECT handle, order_by, payload FROM %s
			WHERE handle > ? ORDER BY handle LIMIT ?`, d.table)
		args = []any{c.lastHandle, cursorPageSize}
	default:
		query = fmt.Sprintf(`SELECT handle, order_by, payload FROM %s
			ORDER BY handle LIMIT ?`, d.table)
		args = []any{cursorPageSize}
	}

	rows, err := c.table.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return storageError("scan "+d.table, "", err)
	}
	defer rows.Close()

	c.page = c.page[:0]
	c.pos = 0
	for rows.Next() {
		var r cursorRow
		if err := rows.Scan(&r.handle, &r.orderKey, &r.payload); err != nil {
			return storageError("scan "+d.table, "", err)
		}
		if r.orderKey == nil {
			r.orderKey = []byte{}
		}
		c.page = append(c.page, r)
	}
	if err := rows.Err(); err != nil {
		return storageError("scan "+d.table, "", err)
	}
	c.done = len(c.page) < cursorPageSize
	return nil
}

// Handle returns the current row's handle.
func (c *Cursor) Handle() string {
	return c.current.handle
}

// Payload returns the current row's serialized record.
func (c *Cursor) Payload() []byte {
	return c.current.payload
}

// OrderKey returns the current row's collation key.
func (c *Cursor) OrderKey() []byte {
	return bytes.Clone(c.current.orderKey)
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/model"
)

// Reference is one row of the reference index: From refers to To.
type Reference struct {
	From model.Ref `json:"from"`
	To   model.Ref `json:"to"`
}

// ReferenceIndex maintains the back-reference table.
//
// Rows are replaced per referencing record. Deleting a record drops the rows
// it owns as referencer; rows naming it as the target stay until the
// referencing records are rewritten or the whole index is rebuilt.
type ReferenceIndex struct {
	conn   Conn
	tables [model.KindCount]*Table
}

func newReferenceIndex(conn Conn, tables [model.KindCount]*Table) *ReferenceIndex {
	return &ReferenceIndex{conn: conn, tables: tables}
}

// RebuildFor replaces the rows owned by r with one row per record r
// references.
func (x *ReferenceIndex) RebuildFor(ctx context.Context, r model.Record) error {
	handle := r.Meta().Handle
	if err := x.DeleteFor(ctx, handle); err != nil {
		return err
	}
	for _, ref := range r.References() {
		_, err := x.conn.ExecContext(ctx,
			"INSERT INTO reference (handle, kind, ref_handle, ref_kind) VALUES (?, ?, ?, ?)",
			handle, r.Kind().String(), ref.Handle, ref.Kind.String(),
		)
		if err != nil {
			return storageError("insert reference", handle, err)
		}
	}
	return nil
}

// DeleteFor drops the rows owned by handle as referencer.
func (x *ReferenceIndex) DeleteFor(ctx context.Context, handle string) error {
	if _, err := x.conn.ExecContext(ctx, "DELETE FROM reference WHERE handle = ?", handle); err != nil {
		return storageError("delete reference", handle, err)
	}
	return nil
}

// RebuildAll truncates the index and recomputes it from every record of
// every kind.
func (x *ReferenceIndex) RebuildAll(ctx context.Context) error {
	if _, err := x.conn.ExecContext(ctx, "DELETE FROM reference"); err != nil {
		return storageError("truncate reference", "", err)
	}
	for _, t := range x.tables {
		kind := t.Kind()
		err := t.Scan(ctx, false, func(handle string, payload []byte) error {
			r, err := codec.DecodeRecord(kind, payload)
			if err != nil {
				return fmt.Errorf("rebuild references: %s %s: %w", kind, handle, err)
			}
			return x.RebuildFor(ctx, r)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FindReferrers returns the records that reference handle, optionally only
// those of the given kinds, ordered by kind and handle.
func (x *ReferenceIndex) FindReferrers(ctx context.Context, handle string, kinds ...model.Kind) ([]model.Ref, error) {
	query := "SELECT DISTINCT kind, handle FROM reference WHERE ref_handle = ?"
	args := []any{handle}
	if len(kinds) > 0 {
		query += " AND kind IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(kinds)), ", ") + ")"
		for _, k := range kinds {
			args = append(args, k.String())
		}
	}
	return x.refs(ctx, query, args...)
}

// FindReferences returns the records handle references, as indexed.
func (x *ReferenceIndex) FindReferences(ctx context.Context, handle string) ([]model.Ref, error) {
	return x.refs(ctx, "SELECT ref_kind, ref_handle FROM reference WHERE handle = ?", handle)
}

func (x *ReferenceIndex) refs(ctx context.Context, query string, args ...any) ([]model.Ref, error) {
	rows, err := x.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query reference", "", err)
	}
	defer rows.Close()

	out := []model.Ref{}
	for rows.Next() {
		var (
			kindName string
			ref      model.Ref
		)
		if err := rows.Scan(&kindName, &ref.Handle); err != nil {
			return nil, storageError("query reference", "", err)
		}
		if ref.Kind, err = model.ParseKind(kindName); err != nil {
			return nil, storageError("query reference", ref.Handle, err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("query reference", "", err)
	}
	slices.SortFunc(out, compareRefs)
	return out, nil
}

// All returns every row of the index, ordered by referencer then target.
func (x *ReferenceIndex) All(ctx context.Context) ([]Reference, error) {
	rows, err := x.conn.QueryContext(ctx, "SELECT kind, handle, ref_kind, ref_handle FROM reference")
	if err != nil {
		return nil, storageError("query reference", "", err)
	}
	defer rows.Close()

	out := []Reference{}
	for rows.Next() {
		var (
			fromKind, toKind string
			r                Reference
		)
		if err := rows.Scan(&fromKind, &r.From.Handle, &toKind, &r.To.Handle); err != nil {
			return nil, storageError("query reference", "", err)
		}
		if r.From.Kind, err = model.ParseKind(fromKind); err != nil {
			return nil, storageError("query reference", r.From.Handle, err)
		}
		if r.To.Kind, err = model.ParseKind(toKind); err != nil {
			return nil, storageError("query reference", r.To.Handle, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("query reference", "", err)
	}
	slices.SortFunc(out, func(a, b Reference) int {
		if c := compareRefs(a.From, b.From); c != 0 {
			return c
		}
		return compareRefs(a.To, b.To)
	})
	return out, nil
}

// Count returns the number of rows.
func (x *ReferenceIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM reference").Scan(&n); err != nil {
		return 0, storageError("count reference", "", err)
	}
	return n, nil
}

func compareRefs(a, b model.Ref) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	return strings.Compare(a.Handle, b.Handle)
}

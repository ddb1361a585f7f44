package store

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/codec"
	"github.com/roach88/lineage/internal/idgen"
)

// Map is a keyed collection view over one table. A handle map is keyed by
// handle; an ID map is keyed by human ID.
//
// Reads go straight to the table. Writes go through the store's commit
// pipeline in a transaction of their own, so indices, registries and
// history stay consistent.
type Map struct {
	store *Store
	table *Table
	byID  bool
}

var _ idgen.Prober = (*Map)(nil)

// Get returns the payload stored under key.
func (m *Map) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.byID {
		_, payload, found, err := m.table.GetByHumanID(ctx, key)
		return payload, found, err
	}
	return m.table.Get(ctx, key)
}

// Contains reports whether key is present.
func (m *Map) Contains(ctx context.Context, key string) (bool, error) {
	if m.byID {
		return m.table.ContainsHumanID(ctx, key)
	}
	return m.table.Contains(ctx, key)
}

// Keys returns every key. Handles come in handle order, human IDs in byte
// order.
func (m *Map) Keys(ctx context.Context) ([]string, error) {
	if m.byID {
		return m.table.HumanIDs(ctx)
	}
	return m.table.Keys(ctx, false)
}

// Len returns the number of entries. An ID map only counts records that
// have a human ID.
func (m *Map) Len(ctx context.Context) (int, error) {
	if !m.byID {
		return m.table.Count(ctx)
	}
	ids, err := m.table.HumanIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Cursor iterates over the underlying rows as (handle, payload) pairs.
func (m *Map) Cursor(sorted bool) *Cursor {
	return m.table.Cursor(sorted)
}

// Put stores a serialized record under key. The record's handle (or human
// ID, for an ID map) is set to key when empty and must match it otherwise.
// On an ID map a record without a handle replaces the one already holding
// key, if any.
func (m *Map) Put(ctx context.Context, key string, data []byte) error {
	kind := m.table.Kind()
	r, err := codec.DecodeRecord(kind, data)
	if err != nil {
		return &Error{Code: CodeInvalidRecord, Op: "put " + kind.Table(), Key: key, Err: err}
	}
	meta := r.Meta()
	field := &meta.Handle
	if m.byID {
		field = &meta.ID
	}
	switch *field {
	case "":
		*field = key
	case key:
	default:
		return &Error{
			Code: CodeInvalidRecord, Op: "put " + kind.Table(), Key: key,
			Err: fmt.Errorf("record is keyed %q", *field),
		}
	}
	if meta.Handle == "" && m.byID {
		// An ID already in use names the record to overwrite.
		h, _, found, err := m.table.GetByHumanID(ctx, key)
		if err != nil {
			return err
		}
		if found {
			meta.Handle = h
		}
	}
	if meta.Handle == "" {
		meta.Handle = m.store.handles.Generate()
	}

	txn := m.store.Begin(fmt.Sprintf("Put %s %s", kind, key), false)
	if err := m.store.CommitRecord(ctx, txn, r); err != nil {
		return err
	}
	return m.store.CommitTransaction(ctx, txn)
}

// Delete removes the record stored under key. Absent keys are ignored.
func (m *Map) Delete(ctx context.Context, key string) error {
	handle := key
	if m.byID {
		h, _, found, err := m.table.GetByHumanID(ctx, key)
		if err != nil || !found {
			return err
		}
		handle = h
	}
	txn := m.store.Begin(fmt.Sprintf("Delete %s %s", m.table.Kind(), key), false)
	if err := m.store.Remove(ctx, txn, m.table.Kind(), handle); err != nil {
		return err
	}
	return m.store.CommitTransaction(ctx, txn)
}
